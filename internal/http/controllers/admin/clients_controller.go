package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/directory"
	dto "github.com/dropDatabas3/hellodir/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/hellodir/internal/http/errors"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
	"github.com/dropDatabas3/hellodir/internal/security/material"
	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// ClientsController expone el registro de clients y el ciclo de vida de
// sus versiones de credencial.
type ClientsController struct {
	dir *directory.Service
}

func NewClientsController(dir *directory.Service) *ClientsController {
	return &ClientsController{dir: dir}
}

func clientResponse(c *core.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        c.ID,
		TenantID:  c.TenantID,
		ClientID:  c.ClientID,
		CreatedAt: c.CreatedAt,
	}
}

func versionResponse(v *core.ClientVersion) dto.VersionResponse {
	return dto.VersionResponse{
		ID:            v.ID,
		ClientID:      v.ClientID,
		Version:       v.Version,
		Status:        v.Status,
		EffectiveFrom: v.EffectiveFrom,
		CreatedAt:     v.CreatedAt,
	}
}

func ordinalParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || n < 1 {
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithDetail("version must be a positive integer"))
		return 0, false
	}
	return n, true
}

// RegisterClient maneja POST /v1/admin/clients.
func (c *ClientsController) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cl, err := c.dir.RegisterClient(r.Context(), req.TenantID, req.ClientID)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("client registered",
		logger.TenantID(cl.TenantID), logger.ClientID(cl.ClientID))
	writeJSON(w, http.StatusCreated, clientResponse(cl))
}

// GetClient maneja GET /v1/admin/clients/{client_id}.
func (c *ClientsController) GetClient(w http.ResponseWriter, r *http.Request) {
	cl, err := c.dir.GetClient(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clientResponse(cl))
}

// DeleteClient maneja DELETE /v1/admin/clients/{client_id}. Sólo procede
// si todas las versiones del client están revocadas.
func (c *ClientsController) DeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	if err := c.dir.DeleteClient(r.Context(), clientID); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("client deleted", logger.ClientID(clientID))
	w.WriteHeader(http.StatusNoContent)
}

// CreateVersion maneja POST /v1/admin/clients/{client_id}/versions.
// Si el request no trae material_hash, el secreto se genera server-side
// y el plaintext viaja una única vez en la respuesta.
func (c *ClientsController) CreateVersion(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	var req dto.CreateVersionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var secret string
	hash := req.MaterialHash
	if hash == "" {
		var err error
		secret, err = material.GenerateSecret()
		if err != nil {
			httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
			return
		}
		hash, err = material.Hash(material.Default, secret)
		if err != nil {
			httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
			return
		}
	}

	v, err := c.dir.CreateVersion(r.Context(), clientID, hash)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("client version created",
		logger.ClientID(clientID), zap.Int("version", v.Version))

	resp := versionResponse(v)
	resp.Secret = secret
	writeJSON(w, http.StatusCreated, resp)
}

// ListVersions maneja GET /v1/admin/clients/{client_id}/versions.
func (c *ClientsController) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := c.dir.ListVersions(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	out := dto.VersionListResponse{Versions: make([]dto.VersionResponse, 0, len(versions))}
	for i := range versions {
		out.Versions = append(out.Versions, versionResponse(&versions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// ActivateVersion maneja POST /v1/admin/clients/{client_id}/versions/{version}/activate.
func (c *ClientsController) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	ordinal, ok := ordinalParam(w, r)
	if !ok {
		return
	}
	v, err := c.dir.ActivateVersion(r.Context(), clientID, ordinal)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("client version activated",
		logger.ClientID(clientID), zap.Int("version", v.Version))
	writeJSON(w, http.StatusOK, versionResponse(v))
}

// RevokeVersion maneja POST /v1/admin/clients/{client_id}/versions/{version}/revoke.
// Revocar una versión ya revocada responde 204 igual.
func (c *ClientsController) RevokeVersion(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	ordinal, ok := ordinalParam(w, r)
	if !ok {
		return
	}
	if err := c.dir.RevokeVersion(r.Context(), clientID, ordinal); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("client version revoked",
		logger.ClientID(clientID), zap.Int("version", ordinal))
	w.WriteHeader(http.StatusNoContent)
}

// ResolveActiveVersion maneja GET /v1/clients/{client_id}/active-version.
// Es el endpoint caliente del directorio: la respuesta sale de cache
// cuando hay una versión activa vigente.
func (c *ClientsController) ResolveActiveVersion(w http.ResponseWriter, r *http.Request) {
	v, err := c.dir.ResolveActiveVersion(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse(v))
}
