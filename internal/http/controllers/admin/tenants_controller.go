package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/directory"
	dto "github.com/dropDatabas3/hellodir/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/hellodir/internal/http/errors"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// TenantsController expone el registro de tenants.
type TenantsController struct {
	dir *directory.Service
}

func NewTenantsController(dir *directory.Service) *TenantsController {
	return &TenantsController{dir: dir}
}

func tenantResponse(t *core.Tenant) dto.TenantResponse {
	return dto.TenantResponse{
		ID:          t.ID,
		Slug:        t.Slug,
		DisplayName: t.DisplayName,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}
}

// CreateTenant maneja POST /v1/admin/tenants.
func (c *TenantsController) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := c.dir.CreateTenant(r.Context(), req.Slug, req.DisplayName)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("tenant created",
		logger.TenantID(t.ID), zap.String("slug", t.Slug))
	writeJSON(w, http.StatusCreated, tenantResponse(t))
}

// GetTenant maneja GET /v1/admin/tenants/{id}.
func (c *TenantsController) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := c.dir.GetTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenantResponse(t))
}

// GetTenantBySlug maneja GET /v1/admin/tenants/by-slug/{slug}.
func (c *TenantsController) GetTenantBySlug(w http.ResponseWriter, r *http.Request) {
	t, err := c.dir.GetTenantBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenantResponse(t))
}

// DeactivateTenant maneja POST /v1/admin/tenants/{id}/deactivate.
// Es idempotente: desactivar un tenant ya inactivo responde 204 igual.
func (c *TenantsController) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.dir.DeactivateTenant(r.Context(), id); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	logger.From(r.Context()).Info("tenant deactivated", logger.TenantID(id))
	w.WriteHeader(http.StatusNoContent)
}
