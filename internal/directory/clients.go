package directory

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/metrics"
	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// client_id es un identificador público estilo OAuth: namespace global,
// inequívoco entre tenants.
var clientIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{2,63}$`)

func activeVersionKey(clientID string) string { return "active:" + clientID }

// RegisterClient crea un client bajo un tenant, en estado draft (sin
// versiones). ErrConflict si el client_id ya existe en cualquier tenant,
// ErrNotFound/ErrTenantInactive según el estado del tenant.
func (s *Service) RegisterClient(ctx context.Context, tenantID, clientID string) (*core.Client, error) {
	if !clientIDRe.MatchString(clientID) {
		return nil, fmt.Errorf("client_id %q: %w", clientID, core.ErrInvalid)
	}

	c := &core.Client{
		ID:        uuid.NewString(),
		Rev:       1,
		TenantID:  tenantID,
		ClientID:  clientID,
		CreatedAt: s.now().UTC(),
	}
	err := s.store.Update(ctx, func(tx core.Tx) error {
		if _, err := requireActiveTenant(tx, tenantID); err != nil {
			return err
		}
		return tx.Insert(core.Clients, c)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("client registered",
		zap.String("tenant_id", tenantID), zap.String("client_id", clientID))
	return c, nil
}

// GetClient busca un client por su client_id público.
func (s *Service) GetClient(ctx context.Context, clientID string) (*core.Client, error) {
	var c *core.Client
	err := s.store.View(ctx, func(tx core.Tx) error {
		var err error
		c, err = clientByClientID(tx, clientID)
		return err
	})
	return c, err
}

func clientByClientID(tx core.Tx, clientID string) (*core.Client, error) {
	rec, err := tx.First(core.Clients, core.IndexClientClientID, clientID)
	if err != nil {
		return nil, err
	}
	return rec.(*core.Client), nil
}

// CreateVersion agrega una versión draft con ordinal = max + 1. Los
// ordinales son append-only y nunca se reusan: una referencia a una
// credencial ya emitida no puede revivir por accidente.
func (s *Service) CreateVersion(ctx context.Context, clientID, materialHash string) (*core.ClientVersion, error) {
	if materialHash == "" {
		return nil, fmt.Errorf("material hash required: %w", core.ErrInvalid)
	}

	var v *core.ClientVersion
	err := s.store.Update(ctx, func(tx core.Tx) error {
		c, err := clientByClientID(tx, clientID)
		if err != nil {
			return err
		}
		versions, err := tx.List(core.ClientVersions, core.IndexVersionClient, c.ID)
		if err != nil {
			return err
		}
		next := 1
		if n := len(versions); n > 0 {
			// Ordenado por ordinal ascendente; el último es el máximo.
			next = versions[n-1].(*core.ClientVersion).Version + 1
		}
		v = &core.ClientVersion{
			ID:           uuid.NewString(),
			Rev:          1,
			ClientID:     c.ID,
			Version:      next,
			Status:       core.VersionDraft,
			MaterialHash: materialHash,
			CreatedAt:    s.now().UTC(),
		}
		return tx.Insert(core.ClientVersions, v)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("client version created",
		zap.String("client_id", clientID), zap.Int("version", v.Version))
	return v, nil
}

// ActivateVersion promueve una versión draft a active. Si otra versión
// estaba activa, pasa a deprecated en la misma transacción: nunca hay
// dos versiones activas visibles, ni siquiera momentáneamente. Retorna
// ErrInvalidTransition si la versión objetivo no está en draft (incluido
// el perdedor de dos activaciones concurrentes, que observa el estado
// del ganador).
func (s *Service) ActivateVersion(ctx context.Context, clientID string, ordinal int) (*core.ClientVersion, error) {
	var v *core.ClientVersion
	err := s.store.Update(ctx, func(tx core.Tx) error {
		c, err := clientByClientID(tx, clientID)
		if err != nil {
			return err
		}
		rec, err := tx.First(core.ClientVersions, core.IndexVersionClientOrdinal, c.ID, ordinal)
		if err != nil {
			return err
		}
		target := rec.(*core.ClientVersion)
		if target.Status != core.VersionDraft {
			return fmt.Errorf("version %d is %s, not draft: %w",
				ordinal, target.Status, core.ErrInvalidTransition)
		}

		// Democión del activo actual, si lo hay, dentro del mismo commit.
		if cur, err := tx.First(core.ClientVersions, core.IndexVersionClientStatus, c.ID, core.VersionActive); err == nil {
			active := cur.(*core.ClientVersion)
			active.Status = core.VersionDeprecated
			if err := tx.Put(core.ClientVersions, active); err != nil {
				return err
			}
		} else if !core.IsNotFound(err) {
			return err
		}

		now := s.now().UTC()
		target.Status = core.VersionActive
		target.EffectiveFrom = &now
		if err := tx.Put(core.ClientVersions, target); err != nil {
			return err
		}
		v = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, activeVersionKey(clientID))
	s.log.Info("client version activated",
		zap.String("client_id", clientID), zap.Int("version", ordinal))
	return v, nil
}

// RevokeVersion fuerza una versión a revoked desde cualquier estado.
// Kill switch de credenciales: idempotente, revocar lo revocado es no-op.
func (s *Service) RevokeVersion(ctx context.Context, clientID string, ordinal int) error {
	err := s.store.Update(ctx, func(tx core.Tx) error {
		c, err := clientByClientID(tx, clientID)
		if err != nil {
			return err
		}
		rec, err := tx.First(core.ClientVersions, core.IndexVersionClientOrdinal, c.ID, ordinal)
		if err != nil {
			return err
		}
		v := rec.(*core.ClientVersion)
		if v.Status == core.VersionRevoked {
			return nil
		}
		v.Status = core.VersionRevoked
		return tx.Put(core.ClientVersions, v)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, activeVersionKey(clientID))
	s.log.Warn("client version revoked",
		zap.String("client_id", clientID), zap.Int("version", ordinal))
	return nil
}

// ResolveActiveVersion retorna la única versión activa del client, o
// ErrNotFound si no hay ninguna. Es el hot path de todo chequeo de
// credenciales: lookup indexado (client_id, status), cacheado con
// invalidación en cada mutación de versiones.
func (s *Service) ResolveActiveVersion(ctx context.Context, clientID string) (*core.ClientVersion, error) {
	v, err := cachedJSON(ctx, s, activeVersionKey(clientID), func(ctx context.Context) (*core.ClientVersion, error) {
		var out *core.ClientVersion
		err := s.store.View(ctx, func(tx core.Tx) error {
			c, err := clientByClientID(tx, clientID)
			if err != nil {
				return err
			}
			rec, err := tx.First(core.ClientVersions, core.IndexVersionClientStatus, c.ID, core.VersionActive)
			if err != nil {
				return err
			}
			out = rec.(*core.ClientVersion)
			return nil
		})
		return out, err
	})
	metrics.ResolveLookup("active_version", err == nil)
	return v, err
}

// ListVersions retorna las versiones del client, ordinal ascendente.
func (s *Service) ListVersions(ctx context.Context, clientID string) ([]core.ClientVersion, error) {
	var out []core.ClientVersion
	err := s.store.View(ctx, func(tx core.Tx) error {
		c, err := clientByClientID(tx, clientID)
		if err != nil {
			return err
		}
		recs, err := tx.List(core.ClientVersions, core.IndexVersionClient, c.ID)
		if err != nil {
			return err
		}
		for _, r := range recs {
			out = append(out, *r.(*core.ClientVersion))
		}
		return nil
	})
	return out, err
}

// DeleteClient elimina un client y sus versiones. Sólo se permite cuando
// todas las versiones están revoked; si no, ErrIntegrity.
func (s *Service) DeleteClient(ctx context.Context, clientID string) error {
	err := s.store.Update(ctx, func(tx core.Tx) error {
		c, err := clientByClientID(tx, clientID)
		if err != nil {
			return err
		}
		versions, err := tx.List(core.ClientVersions, core.IndexVersionClient, c.ID)
		if err != nil {
			return err
		}
		for _, r := range versions {
			v := r.(*core.ClientVersion)
			if v.Status != core.VersionRevoked {
				return fmt.Errorf("version %d still %s: %w", v.Version, v.Status, core.ErrIntegrity)
			}
		}
		for _, r := range versions {
			if err := tx.Delete(core.ClientVersions, r.RecordID()); err != nil {
				return err
			}
		}
		return tx.Delete(core.Clients, c.ID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, activeVersionKey(clientID))
	s.log.Info("client deleted", zap.String("client_id", clientID))
	return nil
}
