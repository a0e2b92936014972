package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

func TestCreateUser(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)

	u, err := s.CreateUser(ctx, tn.ID, "  Alice@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", u.Email, "email gets normalized")

	got, err := s.GetUserByEmail(ctx, tn.ID, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestCreateUser_InvalidEmail(t *testing.T) {
	s := newService(t)
	tn := seedTenant(t, s)

	for _, email := range []string{"", "no-at", "@lead", "trail@", "two words@x"} {
		_, err := s.CreateUser(context.Background(), tn.ID, email)
		require.ErrorIs(t, err, core.ErrInvalid, "email %q", email)
	}
}

func TestCreateUser_PerTenantUniqueness(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	other, err := s.CreateTenant(ctx, "globex", "Globex")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, tn.ID, "alice@example.com")
	require.NoError(t, err)

	// Duplicado en el mismo tenant, aun con otro casing.
	_, err = s.CreateUser(ctx, tn.ID, "ALICE@example.com")
	require.ErrorIs(t, err, core.ErrConflict)

	// El mismo email bajo otro tenant es válido.
	_, err = s.CreateUser(ctx, other.ID, "alice@example.com")
	require.NoError(t, err)
}

func TestLinkIdentity(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	u, err := s.CreateUser(ctx, tn.ID, "alice@example.com")
	require.NoError(t, err)

	ident, err := s.LinkIdentity(ctx, u.ID, "google", "g-123")
	require.NoError(t, err)
	require.Equal(t, u.ID, ident.UserID)

	got, err := s.ResolveByProvider(ctx, "google", "g-123")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	idents, err := s.ListIdentities(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, idents, 1)
}

func TestLinkIdentity_AlreadyLinked(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	alice, err := s.CreateUser(ctx, tn.ID, "alice@example.com")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, tn.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = s.LinkIdentity(ctx, alice.ID, "google", "g-123")
	require.NoError(t, err)

	// La cuenta externa ya liga a alice: ni bob ni la propia alice
	// pueden re-linkearla.
	_, err = s.LinkIdentity(ctx, bob.ID, "google", "g-123")
	require.ErrorIs(t, err, core.ErrConflict)
	_, err = s.LinkIdentity(ctx, alice.ID, "google", "g-123")
	require.ErrorIs(t, err, core.ErrConflict)

	// Un link por provider por usuario.
	_, err = s.LinkIdentity(ctx, alice.ID, "google", "g-other")
	require.ErrorIs(t, err, core.ErrConflict)

	// Otro provider para el mismo usuario sí.
	_, err = s.LinkIdentity(ctx, alice.ID, "github", "gh-1")
	require.NoError(t, err)
}

func TestUnlinkIdentity(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	u, err := s.CreateUser(ctx, tn.ID, "alice@example.com")
	require.NoError(t, err)

	_, err = s.LinkIdentity(ctx, u.ID, "google", "g-123")
	require.NoError(t, err)
	_, err = s.LinkIdentity(ctx, u.ID, "github", "gh-1")
	require.NoError(t, err)

	require.NoError(t, s.UnlinkIdentity(ctx, u.ID, "google"))

	// El resto de los links queda intacto.
	idents, err := s.ListIdentities(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, idents, 1)
	require.Equal(t, "github", idents[0].Provider)

	_, err = s.ResolveByProvider(ctx, "google", "g-123")
	require.ErrorIs(t, err, core.ErrNotFound)

	// Unlink de algo no linkeado.
	err = s.UnlinkIdentity(ctx, u.ID, "google")
	require.ErrorIs(t, err, core.ErrNotFound)

	// La cuenta externa quedó libre para otro usuario.
	bob, err := s.CreateUser(ctx, tn.ID, "bob@example.com")
	require.NoError(t, err)
	_, err = s.LinkIdentity(ctx, bob.ID, "google", "g-123")
	require.NoError(t, err)
}

func TestDeleteUser_CascadesIdentities(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	tn := seedTenant(t, s)
	u, err := s.CreateUser(ctx, tn.ID, "alice@example.com")
	require.NoError(t, err)
	_, err = s.LinkIdentity(ctx, u.ID, "google", "g-123")
	require.NoError(t, err)
	_, err = s.LinkIdentity(ctx, u.ID, "github", "gh-1")
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err = s.GetUser(ctx, u.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.ResolveByProvider(ctx, "google", "g-123")
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.ResolveByProvider(ctx, "github", "gh-1")
	require.ErrorIs(t, err, core.ErrNotFound)

	// El email queda libre dentro del tenant.
	_, err = s.CreateUser(ctx, tn.ID, "alice@example.com")
	require.NoError(t, err)
}
