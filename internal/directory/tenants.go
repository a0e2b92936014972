package directory

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// NormalizeSlug lleva el slug a su forma canónica: minúsculas, sin
// espacios alrededor. La normalización vive acá y sólo acá; el resto del
// directorio asume slugs ya canónicos.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// CreateTenant registra un tenant nuevo con slug único global.
// Retorna ErrConflict si el slug ya está tomado, ErrInvalid si el slug
// no cumple el charset permitido.
func (s *Service) CreateTenant(ctx context.Context, slug, displayName string) (*core.Tenant, error) {
	slug = NormalizeSlug(slug)
	if !slugRe.MatchString(slug) {
		return nil, fmt.Errorf("tenant slug %q: %w", slug, core.ErrInvalid)
	}

	t := &core.Tenant{
		ID:          uuid.NewString(),
		Rev:         1,
		Slug:        slug,
		DisplayName: strings.TrimSpace(displayName),
		Status:      core.TenantActive,
		CreatedAt:   s.now().UTC(),
	}
	err := s.store.Update(ctx, func(tx core.Tx) error {
		return tx.Insert(core.Tenants, t)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("tenant created", zap.String("tenant_id", t.ID), zap.String("slug", t.Slug))
	return t, nil
}

// GetTenantBySlug busca un tenant por slug (normalizado).
func (s *Service) GetTenantBySlug(ctx context.Context, slug string) (*core.Tenant, error) {
	var t *core.Tenant
	err := s.store.View(ctx, func(tx core.Tx) error {
		rec, err := tx.First(core.Tenants, core.IndexTenantSlug, NormalizeSlug(slug))
		if err != nil {
			return err
		}
		t = rec.(*core.Tenant)
		return nil
	})
	return t, err
}

// GetTenant busca un tenant por ID.
func (s *Service) GetTenant(ctx context.Context, id string) (*core.Tenant, error) {
	var t *core.Tenant
	err := s.store.View(ctx, func(tx core.Tx) error {
		rec, err := tx.Get(core.Tenants, id)
		if err != nil {
			return err
		}
		t = rec.(*core.Tenant)
		return nil
	})
	return t, err
}

// DeactivateTenant marca el tenant como inactivo. Nunca borra: clients y
// usuarios mantienen la back-reference. Idempotente.
func (s *Service) DeactivateTenant(ctx context.Context, id string) error {
	err := s.store.Update(ctx, func(tx core.Tx) error {
		rec, err := tx.Get(core.Tenants, id)
		if err != nil {
			return err
		}
		t := rec.(*core.Tenant)
		if t.Status == core.TenantInactive {
			return nil
		}
		t.Status = core.TenantInactive
		return tx.Put(core.Tenants, t)
	})
	if err != nil {
		return err
	}
	s.log.Info("tenant deactivated", zap.String("tenant_id", id))
	return nil
}

// requireActiveTenant carga el tenant y falla con ErrTenantInactive si
// está desactivado. Para uso dentro de transacciones de escritura.
func requireActiveTenant(tx core.Tx, tenantID string) (*core.Tenant, error) {
	rec, err := tx.Get(core.Tenants, tenantID)
	if err != nil {
		return nil, err
	}
	t := rec.(*core.Tenant)
	if t.Status != core.TenantActive {
		return nil, fmt.Errorf("tenant %s: %w", t.Slug, core.ErrTenantInactive)
	}
	return t, nil
}
