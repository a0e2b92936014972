package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

func seedTenant(t *testing.T, s *Service) *core.Tenant {
	t.Helper()
	tn, err := s.CreateTenant(context.Background(), "acme", "Acme")
	require.NoError(t, err)
	return tn
}

func TestRegisterClient(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)

	c, err := s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)
	require.Equal(t, tn.ID, c.TenantID)

	got, err := s.GetClient(ctx, "acme-web")
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	// Sin versiones todavía: no hay versión activa que resolver.
	_, err = s.ResolveActiveVersion(ctx, "acme-web")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRegisterClient_GlobalNamespace(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	other, err := s.CreateTenant(ctx, "globex", "Globex")
	require.NoError(t, err)

	_, err = s.RegisterClient(ctx, tn.ID, "shared-id")
	require.NoError(t, err)

	// client_id choca aun bajo otro tenant: el namespace es global.
	_, err = s.RegisterClient(ctx, other.ID, "shared-id")
	require.ErrorIs(t, err, core.ErrConflict)
}

func TestRegisterClient_InvalidID(t *testing.T) {
	s := newService(t)
	tn := seedTenant(t, s)

	for _, id := range []string{"", "ab", "-lead", "has space", "semi;colon"} {
		_, err := s.RegisterClient(context.Background(), tn.ID, id)
		require.ErrorIs(t, err, core.ErrInvalid, "client_id %q", id)
	}
}

func TestVersionLifecycle(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	_, err := s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)

	v1, err := s.CreateVersion(ctx, "acme-web", "hash-1")
	require.NoError(t, err)
	require.Equal(t, 1, v1.Version)
	require.Equal(t, core.VersionDraft, v1.Status)

	act, err := s.ActivateVersion(ctx, "acme-web", 1)
	require.NoError(t, err)
	require.Equal(t, core.VersionActive, act.Status)
	require.NotNil(t, act.EffectiveFrom)

	got, err := s.ResolveActiveVersion(ctx, "acme-web")
	require.NoError(t, err)
	require.Equal(t, 1, got.Version)

	// Una segunda versión activada deprecates la anterior en el mismo commit.
	v2, err := s.CreateVersion(ctx, "acme-web", "hash-2")
	require.NoError(t, err)
	require.Equal(t, 2, v2.Version)

	_, err = s.ActivateVersion(ctx, "acme-web", 2)
	require.NoError(t, err)

	got, err = s.ResolveActiveVersion(ctx, "acme-web")
	require.NoError(t, err)
	require.Equal(t, 2, got.Version)

	all, err := s.ListVersions(ctx, "acme-web")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, core.VersionDeprecated, all[0].Status)
	require.Equal(t, core.VersionActive, all[1].Status)
}

func TestActivateVersion_NotDraft(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	_, err := s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)
	_, err = s.CreateVersion(ctx, "acme-web", "hash-1")
	require.NoError(t, err)

	_, err = s.ActivateVersion(ctx, "acme-web", 1)
	require.NoError(t, err)

	// Re-activar la activa no es idempotente: ya no está en draft.
	_, err = s.ActivateVersion(ctx, "acme-web", 1)
	require.ErrorIs(t, err, core.ErrInvalidTransition)

	// Tampoco una revocada.
	require.NoError(t, s.RevokeVersion(ctx, "acme-web", 1))
	_, err = s.ActivateVersion(ctx, "acme-web", 1)
	require.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestRevokeVersion(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	_, err := s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)
	_, err = s.CreateVersion(ctx, "acme-web", "hash-1")
	require.NoError(t, err)
	_, err = s.ActivateVersion(ctx, "acme-web", 1)
	require.NoError(t, err)

	require.NoError(t, s.RevokeVersion(ctx, "acme-web", 1))
	// Idempotente.
	require.NoError(t, s.RevokeVersion(ctx, "acme-web", 1))

	// Revocada la única activa, no queda nada que resolver.
	_, err = s.ResolveActiveVersion(ctx, "acme-web")
	require.ErrorIs(t, err, core.ErrNotFound)

	// Los ordinales nunca se reusan.
	v, err := s.CreateVersion(ctx, "acme-web", "hash-2")
	require.NoError(t, err)
	require.Equal(t, 2, v.Version)
}

func TestRevokeVersion_UnknownOrdinal(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	_, err := s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)

	err = s.RevokeVersion(ctx, "acme-web", 9)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestConcurrentActivateSameOrdinal(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	_, err := s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)
	_, err = s.CreateVersion(ctx, "acme-web", "hash-1")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.ActivateVersion(ctx, "acme-web", 1)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		default:
			require.ErrorIs(t, err, core.ErrInvalidTransition)
		}
	}
	require.Equal(t, 1, winners, "exactly one activation wins")

	got, err := s.ResolveActiveVersion(ctx, "acme-web")
	require.NoError(t, err)
	require.Equal(t, 1, got.Version)
}

func TestDeleteClient(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	_, err := s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)
	_, err = s.CreateVersion(ctx, "acme-web", "hash-1")
	require.NoError(t, err)
	_, err = s.ActivateVersion(ctx, "acme-web", 1)
	require.NoError(t, err)

	// Con una versión viva el delete se rechaza.
	err = s.DeleteClient(ctx, "acme-web")
	require.ErrorIs(t, err, core.ErrIntegrity)

	require.NoError(t, s.RevokeVersion(ctx, "acme-web", 1))
	require.NoError(t, s.DeleteClient(ctx, "acme-web"))

	_, err = s.GetClient(ctx, "acme-web")
	require.ErrorIs(t, err, core.ErrNotFound)

	// El client_id queda libre para un registro nuevo.
	_, err = s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)
}
