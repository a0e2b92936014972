package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/metrics"
	"github.com/dropDatabas3/hellodir/internal/store/core"
)

func providerKey(provider, providerUserID string) string {
	return "ident:" + provider + ":" + providerUserID
}

// LinkIdentity asocia una cuenta externa (provider, provider_user_id) a
// un usuario. La cuenta externa liga a exactamente un usuario interno
// por la vida del link: ErrConflict si ya está ligada a cualquier
// usuario, incluido el mismo.
func (s *Service) LinkIdentity(ctx context.Context, userID, provider, providerUserID string) (*core.Identity, error) {
	provider = strings.TrimSpace(provider)
	providerUserID = strings.TrimSpace(providerUserID)
	if provider == "" || providerUserID == "" {
		return nil, fmt.Errorf("provider and provider_user_id required: %w", core.ErrInvalid)
	}

	ident := &core.Identity{
		ID:             uuid.NewString(),
		Rev:            1,
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: providerUserID,
		LinkedAt:       s.now().UTC(),
	}
	err := s.store.Update(ctx, func(tx core.Tx) error {
		if _, err := tx.Get(core.AppUsers, userID); err != nil {
			return err
		}
		return tx.Insert(core.Identities, ident)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("identity linked",
		zap.String("user_id", userID), zap.String("provider", provider))
	return ident, nil
}

// UnlinkIdentity remueve el link de ese provider para ese usuario.
// ErrNotFound si el usuario no tiene link con ese provider; los links de
// otros providers no se tocan.
func (s *Service) UnlinkIdentity(ctx context.Context, userID, provider string) error {
	var removed *core.Identity
	err := s.store.Update(ctx, func(tx core.Tx) error {
		rec, err := tx.First(core.Identities, core.IndexIdentityUserProvider, userID, provider)
		if err != nil {
			return err
		}
		removed = rec.(*core.Identity)
		return tx.Delete(core.Identities, removed.ID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, providerKey(removed.Provider, removed.ProviderUserID))
	s.log.Info("identity unlinked",
		zap.String("user_id", userID), zap.String("provider", provider))
	return nil
}

// ListIdentities retorna los links del usuario, orden de vinculación.
func (s *Service) ListIdentities(ctx context.Context, userID string) ([]core.Identity, error) {
	var out []core.Identity
	err := s.store.View(ctx, func(tx core.Tx) error {
		if _, err := tx.Get(core.AppUsers, userID); err != nil {
			return err
		}
		recs, err := tx.List(core.Identities, core.IndexIdentityUser, userID)
		if err != nil {
			return err
		}
		for _, r := range recs {
			out = append(out, *r.(*core.Identity))
		}
		return nil
	})
	return out, err
}

// ResolveByProvider resuelve un login federado al usuario dueño de la
// cuenta externa, o ErrNotFound. Hot path de cada sign-in: lookup
// indexado directo, cacheado con invalidación en unlink/delete.
func (s *Service) ResolveByProvider(ctx context.Context, provider, providerUserID string) (*core.AppUser, error) {
	u, err := cachedJSON(ctx, s, providerKey(provider, providerUserID), func(ctx context.Context) (*core.AppUser, error) {
		var out *core.AppUser
		err := s.store.View(ctx, func(tx core.Tx) error {
			rec, err := tx.First(core.Identities, core.IndexIdentityProviderUser, provider, providerUserID)
			if err != nil {
				return err
			}
			user, err := tx.Get(core.AppUsers, rec.(*core.Identity).UserID)
			if err != nil {
				return err
			}
			out = user.(*core.AppUser)
			return nil
		})
		return out, err
	})
	metrics.ResolveLookup("provider", err == nil)
	return u, err
}
