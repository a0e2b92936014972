package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodir/internal/cache"
	"github.com/dropDatabas3/hellodir/internal/store/core"
)

// Los hot paths con cache habilitado tienen que ver las escrituras del
// directorio de inmediato: cada mutación invalida su key.
func TestResolveActiveVersion_CacheInvalidation(t *testing.T) {
	cc, err := cache.New(cache.Config{Kind: "memory", DefaultTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	s := newService(t, WithCache(cc, time.Minute))
	ctx := context.Background()

	tn, err := s.CreateTenant(ctx, "acme", "Acme")
	require.NoError(t, err)
	_, err = s.RegisterClient(ctx, tn.ID, "acme-web")
	require.NoError(t, err)
	_, err = s.CreateVersion(ctx, "acme-web", "hash-1")
	require.NoError(t, err)
	_, err = s.ActivateVersion(ctx, "acme-web", 1)
	require.NoError(t, err)

	// Primer resolve llena el cache; el segundo sale de ahí.
	got, err := s.ResolveActiveVersion(ctx, "acme-web")
	require.NoError(t, err)
	require.Equal(t, 1, got.Version)
	got, err = s.ResolveActiveVersion(ctx, "acme-web")
	require.NoError(t, err)
	require.Equal(t, 1, got.Version)

	// Rotación: la activación de v2 invalida y el resolve ve v2.
	_, err = s.CreateVersion(ctx, "acme-web", "hash-2")
	require.NoError(t, err)
	_, err = s.ActivateVersion(ctx, "acme-web", 2)
	require.NoError(t, err)

	got, err = s.ResolveActiveVersion(ctx, "acme-web")
	require.NoError(t, err)
	require.Equal(t, 2, got.Version)

	// Kill switch: revocar la activa invalida y el resolve falla.
	require.NoError(t, s.RevokeVersion(ctx, "acme-web", 2))
	_, err = s.ResolveActiveVersion(ctx, "acme-web")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolveByProvider_CacheInvalidation(t *testing.T) {
	cc, err := cache.New(cache.Config{Kind: "memory", DefaultTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	s := newService(t, WithCache(cc, time.Minute))
	ctx := context.Background()

	tn, err := s.CreateTenant(ctx, "acme", "Acme")
	require.NoError(t, err)
	u, err := s.CreateUser(ctx, tn.ID, "alice@example.com")
	require.NoError(t, err)
	_, err = s.LinkIdentity(ctx, u.ID, "google", "g-123")
	require.NoError(t, err)

	got, err := s.ResolveByProvider(ctx, "google", "g-123")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// Unlink invalida: el resolve cacheado no puede sobrevivir al link.
	require.NoError(t, s.UnlinkIdentity(ctx, u.ID, "google"))
	_, err = s.ResolveByProvider(ctx, "google", "g-123")
	require.ErrorIs(t, err, core.ErrNotFound)
}
