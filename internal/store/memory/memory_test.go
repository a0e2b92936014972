package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func insertTenant(t *testing.T, s *Store, id, slug string) *core.Tenant {
	t.Helper()
	tn := &core.Tenant{
		ID: id, Rev: 1, Slug: slug, DisplayName: slug,
		Status: core.TenantActive, CreatedAt: time.Now().UTC(),
	}
	err := s.Update(context.Background(), func(tx core.Tx) error {
		return tx.Insert(core.Tenants, tn)
	})
	if err != nil {
		t.Fatalf("insert tenant: %v", err)
	}
	return tn
}

func TestInsertGetRoundtrip(t *testing.T) {
	s := newStore(t)
	insertTenant(t, s, "t1", "acme")

	err := s.View(context.Background(), func(tx core.Tx) error {
		rec, err := tx.Get(core.Tenants, "t1")
		if err != nil {
			return err
		}
		got := rec.(*core.Tenant)
		if got.Slug != "acme" || got.Rev != 1 {
			t.Fatalf("unexpected record: %+v", got)
		}
		// El caller recibe una copia: mutarla no toca el snapshot.
		got.Slug = "mutated"
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	err = s.View(context.Background(), func(tx core.Tx) error {
		rec, err := tx.Get(core.Tenants, "t1")
		if err != nil {
			return err
		}
		if rec.(*core.Tenant).Slug != "acme" {
			t.Fatalf("snapshot mutated through caller copy")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestUniqueSlugConflict(t *testing.T) {
	s := newStore(t)
	insertTenant(t, s, "t1", "acme")

	err := s.Update(context.Background(), func(tx core.Tx) error {
		return tx.Insert(core.Tenants, &core.Tenant{
			ID: "t2", Rev: 1, Slug: "acme", Status: core.TenantActive,
		})
	})
	if !core.IsConflict(err) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// La transacción fallida no deja estado parcial.
	err = s.View(context.Background(), func(tx core.Tx) error {
		if _, err := tx.Get(core.Tenants, "t2"); !core.IsNotFound(err) {
			t.Fatalf("expected t2 absent, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestStaleRevConflict(t *testing.T) {
	s := newStore(t)
	tn := insertTenant(t, s, "t1", "acme")

	// Primera escritura gana y bumpea rev.
	err := s.Update(context.Background(), func(tx core.Tx) error {
		cp := *tn
		cp.DisplayName = "Acme Inc."
		return tx.Put(core.Tenants, &cp)
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	// Segunda escritura con el rev viejo pierde.
	err = s.Update(context.Background(), func(tx core.Tx) error {
		cp := *tn
		cp.DisplayName = "stale writer"
		return tx.Put(core.Tenants, &cp)
	})
	if !core.IsConflict(err) {
		t.Fatalf("expected ErrConflict on stale rev, got %v", err)
	}

	err = s.View(context.Background(), func(tx core.Tx) error {
		rec, err := tx.Get(core.Tenants, "t1")
		if err != nil {
			return err
		}
		got := rec.(*core.Tenant)
		if got.DisplayName != "Acme Inc." || got.Rev != 2 {
			t.Fatalf("unexpected state after CAS: %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestDeleteIntegrity(t *testing.T) {
	s := newStore(t)
	insertTenant(t, s, "t1", "acme")

	err := s.Update(context.Background(), func(tx core.Tx) error {
		return tx.Insert(core.Clients, &core.Client{
			ID: "c1", Rev: 1, TenantID: "t1", ClientID: "acme-web",
		})
	})
	if err != nil {
		t.Fatalf("insert client: %v", err)
	}

	err = s.Update(context.Background(), func(tx core.Tx) error {
		return tx.Delete(core.Tenants, "t1")
	})
	if !errors.Is(err, core.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}

	// Sin la referencia, el delete procede.
	err = s.Update(context.Background(), func(tx core.Tx) error {
		if err := tx.Delete(core.Clients, "c1"); err != nil {
			return err
		}
		return tx.Delete(core.Tenants, "t1")
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestVersionOrdering(t *testing.T) {
	s := newStore(t)
	insertTenant(t, s, "t1", "acme")

	err := s.Update(context.Background(), func(tx core.Tx) error {
		if err := tx.Insert(core.Clients, &core.Client{
			ID: "c1", Rev: 1, TenantID: "t1", ClientID: "acme-web",
		}); err != nil {
			return err
		}
		// Inserción fuera de orden a propósito.
		for _, n := range []int{3, 1, 2} {
			v := &core.ClientVersion{
				ID: "v" + string(rune('0'+n)), Rev: 1, ClientID: "c1",
				Version: n, Status: core.VersionDraft, MaterialHash: "h",
			}
			if err := tx.Insert(core.ClientVersions, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	err = s.View(context.Background(), func(tx core.Tx) error {
		recs, err := tx.List(core.ClientVersions, core.IndexVersionClient, "c1")
		if err != nil {
			return err
		}
		if len(recs) != 3 {
			t.Fatalf("expected 3 versions, got %d", len(recs))
		}
		for i, r := range recs {
			if got := r.(*core.ClientVersion).Version; got != i+1 {
				t.Fatalf("position %d: expected ordinal %d, got %d", i, i+1, got)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestDuplicateOrdinalConflict(t *testing.T) {
	s := newStore(t)
	insertTenant(t, s, "t1", "acme")

	err := s.Update(context.Background(), func(tx core.Tx) error {
		if err := tx.Insert(core.Clients, &core.Client{
			ID: "c1", Rev: 1, TenantID: "t1", ClientID: "acme-web",
		}); err != nil {
			return err
		}
		return tx.Insert(core.ClientVersions, &core.ClientVersion{
			ID: "v1", Rev: 1, ClientID: "c1", Version: 1,
			Status: core.VersionDraft, MaterialHash: "h",
		})
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	err = s.Update(context.Background(), func(tx core.Tx) error {
		return tx.Insert(core.ClientVersions, &core.ClientVersion{
			ID: "v1bis", Rev: 1, ClientID: "c1", Version: 1,
			Status: core.VersionDraft, MaterialHash: "h2",
		})
	})
	if !core.IsConflict(err) {
		t.Fatalf("expected ErrConflict on duplicate ordinal, got %v", err)
	}
}

func TestConcurrentUniqueInserts(t *testing.T) {
	s := newStore(t)

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Update(context.Background(), func(tx core.Tx) error {
				return tx.Insert(core.Tenants, &core.Tenant{
					ID: fmt.Sprintf("t%02d", i), Rev: 1, Slug: "acme",
					Status: core.TenantActive,
				})
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case core.IsConflict(err):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly 1 winner for slug, got %d", ok)
	}
}

func TestContextDeadline(t *testing.T) {
	s := newStore(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := s.Update(ctx, func(tx core.Tx) error { return nil })
	if !core.IsTimeout(err) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
