package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellodir/internal/directory"
	dto "github.com/dropDatabas3/hellodir/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/hellodir/internal/http/errors"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// UsersController expone el directorio de usuarios por tenant y el
// vínculo de identidades federadas.
type UsersController struct {
	dir *directory.Service
}

func NewUsersController(dir *directory.Service) *UsersController {
	return &UsersController{dir: dir}
}

func userResponse(u *core.AppUser) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func identityResponse(i *core.Identity) dto.IdentityResponse {
	return dto.IdentityResponse{
		ID:             i.ID,
		UserID:         i.UserID,
		Provider:       i.Provider,
		ProviderUserID: i.ProviderUserID,
		LinkedAt:       i.LinkedAt,
	}
}

// CreateUser maneja POST /v1/admin/users.
func (c *UsersController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := c.dir.CreateUser(r.Context(), req.TenantID, req.Email)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("user created",
		logger.TenantID(u.TenantID), logger.UserID(u.ID))
	writeJSON(w, http.StatusCreated, userResponse(u))
}

// GetUser maneja GET /v1/admin/users/{id}.
func (c *UsersController) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := c.dir.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(u))
}

// GetUserByEmail maneja GET /v1/admin/users/by-email?tenant_id=...&email=...
// El email viaja por query string para no pelear con el escaping de path.
func (c *UsersController) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID, email := q.Get("tenant_id"), q.Get("email")
	if tenantID == "" || email == "" {
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithDetail("tenant_id and email are required"))
		return
	}
	u, err := c.dir.GetUserByEmail(r.Context(), tenantID, email)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(u))
}

// DeleteUser maneja DELETE /v1/admin/users/{id}. Borra también las
// identidades vinculadas en la misma transacción.
func (c *UsersController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.dir.DeleteUser(r.Context(), id); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("user deleted", logger.UserID(id))
	w.WriteHeader(http.StatusNoContent)
}

// LinkIdentity maneja POST /v1/admin/users/{id}/identities.
func (c *UsersController) LinkIdentity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var req dto.LinkIdentityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ident, err := c.dir.LinkIdentity(r.Context(), userID, req.Provider, req.ProviderUserID)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("identity linked",
		logger.UserID(userID), logger.Provider(ident.Provider))
	writeJSON(w, http.StatusCreated, identityResponse(ident))
}

// UnlinkIdentity maneja DELETE /v1/admin/users/{id}/identities/{provider}.
func (c *UsersController) UnlinkIdentity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	provider := chi.URLParam(r, "provider")
	if err := c.dir.UnlinkIdentity(r.Context(), userID, provider); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("identity unlinked",
		logger.UserID(userID), logger.Provider(provider))
	w.WriteHeader(http.StatusNoContent)
}

// ListIdentities maneja GET /v1/admin/users/{id}/identities.
func (c *UsersController) ListIdentities(w http.ResponseWriter, r *http.Request) {
	idents, err := c.dir.ListIdentities(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	out := dto.IdentityListResponse{Identities: make([]dto.IdentityResponse, 0, len(idents))}
	for i := range idents {
		out.Identities = append(out.Identities, identityResponse(&idents[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// ResolveByProvider maneja GET /v1/identities/{provider}/{provider_user_id}.
// Endpoint caliente de login federado: resuelve la cuenta externa al
// usuario local, con cache.
func (c *UsersController) ResolveByProvider(w http.ResponseWriter, r *http.Request) {
	u, err := c.dir.ResolveByProvider(r.Context(),
		chi.URLParam(r, "provider"), chi.URLParam(r, "provider_user_id"))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(u))
}
