package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// NormalizeEmail lleva el email a su forma canónica para el chequeo de
// unicidad por tenant (case-insensitive).
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// CreateUser registra un usuario bajo un tenant. (tenant_id, email) es
// único con email normalizado; ErrConflict en duplicado,
// ErrNotFound/ErrTenantInactive según el estado del tenant.
func (s *Service) CreateUser(ctx context.Context, tenantID, email string) (*core.AppUser, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, fmt.Errorf("email %q: %w", email, core.ErrInvalid)
	}

	u := &core.AppUser{
		ID:        uuid.NewString(),
		Rev:       1,
		TenantID:  tenantID,
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	err := s.store.Update(ctx, func(tx core.Tx) error {
		if _, err := requireActiveTenant(tx, tenantID); err != nil {
			return err
		}
		return tx.Insert(core.AppUsers, u)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("tenant_id", tenantID), zap.String("user_id", u.ID))
	return u, nil
}

// GetUser busca un usuario por ID.
func (s *Service) GetUser(ctx context.Context, id string) (*core.AppUser, error) {
	var u *core.AppUser
	err := s.store.View(ctx, func(tx core.Tx) error {
		rec, err := tx.Get(core.AppUsers, id)
		if err != nil {
			return err
		}
		u = rec.(*core.AppUser)
		return nil
	})
	return u, err
}

// GetUserByEmail busca un usuario por (tenant, email normalizado).
func (s *Service) GetUserByEmail(ctx context.Context, tenantID, email string) (*core.AppUser, error) {
	var u *core.AppUser
	err := s.store.View(ctx, func(tx core.Tx) error {
		rec, err := tx.First(core.AppUsers, core.IndexUserTenantEmail, tenantID, NormalizeEmail(email))
		if err != nil {
			return err
		}
		u = rec.(*core.AppUser)
		return nil
	})
	return u, err
}

// DeleteUser elimina un usuario y todas sus identities en la misma
// transacción: nunca se observa una identity huérfana.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	var linked []core.Identity
	err := s.store.Update(ctx, func(tx core.Tx) error {
		linked = linked[:0]
		if _, err := tx.Get(core.AppUsers, id); err != nil {
			return err
		}
		idents, err := tx.List(core.Identities, core.IndexIdentityUser, id)
		if err != nil {
			return err
		}
		for _, r := range idents {
			ident := r.(*core.Identity)
			if err := tx.Delete(core.Identities, ident.ID); err != nil {
				return err
			}
			linked = append(linked, *ident)
		}
		return tx.Delete(core.AppUsers, id)
	})
	if err != nil {
		return err
	}
	for _, ident := range linked {
		s.invalidate(ctx, providerKey(ident.Provider, ident.ProviderUserID))
	}
	s.log.Info("user deleted",
		zap.String("user_id", id), zap.Int("identities_removed", len(linked)))
	return nil
}
