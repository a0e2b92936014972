// Package memory implementa el entity store sobre hashicorp/go-memdb:
// transacciones serializadas de escritura, snapshots de lectura y el
// schema de índices del directorio materializado como índices memdb.
//
// Es el driver por defecto para desarrollo y testing; producción usa pg.
package memory

import (
	"context"
	"errors"
	"fmt"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

type Store struct {
	db *memdb.MemDB
}

// New crea un store en memoria con el schema del directorio.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("memory: build schema: %w", err)
	}
	return &Store{db: db}, nil
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			string(core.Tenants): {
				Name: string(core.Tenants),
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					core.IndexTenantSlug: {
						Name: core.IndexTenantSlug, Unique: true,
						Indexer: &memdb.StringFieldIndex{Field: "Slug", Lowercase: true},
					},
				},
			},
			string(core.Clients): {
				Name: string(core.Clients),
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					core.IndexClientClientID: {
						Name: core.IndexClientClientID, Unique: true,
						Indexer: &memdb.StringFieldIndex{Field: "ClientID"},
					},
					core.IndexClientTenant: {
						Name:    core.IndexClientTenant,
						Indexer: &memdb.StringFieldIndex{Field: "TenantID"},
					},
				},
			},
			string(core.ClientVersions): {
				Name: string(core.ClientVersions),
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					core.IndexVersionClientOrdinal: {
						Name: core.IndexVersionClientOrdinal, Unique: true,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "ClientID"},
							&memdb.IntFieldIndex{Field: "Version"},
						}},
					},
					core.IndexVersionClientStatus: {
						Name: core.IndexVersionClientStatus,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "ClientID"},
							&memdb.StringFieldIndex{Field: "Status"},
						}},
					},
					// Listado por client, ordenado por ordinal ascendente.
					core.IndexVersionClient: {
						Name: core.IndexVersionClient,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "ClientID"},
							&memdb.IntFieldIndex{Field: "Version"},
						}},
					},
				},
			},
			string(core.AppUsers): {
				Name: string(core.AppUsers),
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					core.IndexUserTenantEmail: {
						Name: core.IndexUserTenantEmail, Unique: true,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "TenantID"},
							&memdb.StringFieldIndex{Field: "Email", Lowercase: true},
						}},
					},
					core.IndexUserTenant: {
						Name:    core.IndexUserTenant,
						Indexer: &memdb.StringFieldIndex{Field: "TenantID"},
					},
				},
			},
			string(core.Identities): {
				Name: string(core.Identities),
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					core.IndexIdentityProviderUser: {
						Name: core.IndexIdentityProviderUser, Unique: true,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Provider"},
							&memdb.StringFieldIndex{Field: "ProviderUserID"},
						}},
					},
					core.IndexIdentityUser: {
						Name:    core.IndexIdentityUser,
						Indexer: &memdb.StringFieldIndex{Field: "UserID"},
					},
					core.IndexIdentityUserProvider: {
						Name: core.IndexIdentityUserProvider,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "UserID"},
							&memdb.StringFieldIndex{Field: "Provider"},
						}},
					},
				},
			},
		},
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

// View ejecuta fn sobre un snapshot de lectura.
func (s *Store) View(ctx context.Context, fn func(core.Tx) error) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(&tx{txn: txn})
}

// Update ejecuta fn en la transacción de escritura exclusiva de memdb.
// Commit sólo si fn retorna nil y el contexto sigue vivo; cualquier otro
// camino (error, panic, cancelación) aborta sin estado parcial.
func (s *Store) Update(ctx context.Context, fn func(core.Tx) error) (err error) {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	committed := false
	defer func() {
		if !committed {
			txn.Abort()
		}
	}()
	if err := fn(&tx{txn: txn, write: true}); err != nil {
		return err
	}
	if err := ctxErr(ctx); err != nil {
		return err
	}
	txn.Commit()
	committed = true
	return nil
}

func ctxErr(ctx context.Context) error {
	switch {
	case ctx.Err() == nil:
		return nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("memory: %w", core.ErrTimeout)
	default:
		return ctx.Err()
	}
}

type tx struct {
	txn   *memdb.Txn
	write bool
}

// uniqueIndexes lista, por colección, los índices únicos que Insert debe
// chequear explícitamente. memdb no rechaza colisiones en índices únicos
// entre objetos con distinto ID, así que el chequeo va acá, dentro de la
// transacción de escritura (single-writer, sin ventana de carrera).
var uniqueIndexes = map[core.Collection][]string{
	core.Tenants:        {core.IndexTenantSlug},
	core.Clients:        {core.IndexClientClientID},
	core.ClientVersions: {core.IndexVersionClientOrdinal},
	core.AppUsers:       {core.IndexUserTenantEmail},
	core.Identities:     {core.IndexIdentityProviderUser, core.IndexIdentityUserProvider},
}

func (t *tx) Insert(col core.Collection, rec core.Record) error {
	if !t.write {
		return fmt.Errorf("memory: insert in read-only tx: %w", core.ErrInvalid)
	}
	if rec.RecordID() == "" {
		return fmt.Errorf("memory: missing record id: %w", core.ErrInvalid)
	}
	if existing, err := t.txn.First(string(col), "id", rec.RecordID()); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("memory: %s id %s: %w", col, rec.RecordID(), core.ErrConflict)
	}
	for _, idx := range uniqueIndexes[col] {
		args, err := uniqueArgs(col, idx, rec)
		if err != nil {
			return err
		}
		existing, err := t.txn.First(string(col), idx, args...)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("memory: %s unique index %s: %w", col, idx, core.ErrConflict)
		}
	}
	return t.txn.Insert(string(col), clone(rec))
}

func uniqueArgs(col core.Collection, idx string, rec core.Record) ([]any, error) {
	switch r := rec.(type) {
	case *core.Tenant:
		return []any{r.Slug}, nil
	case *core.Client:
		return []any{r.ClientID}, nil
	case *core.ClientVersion:
		return []any{r.ClientID, r.Version}, nil
	case *core.AppUser:
		return []any{r.TenantID, r.Email}, nil
	case *core.Identity:
		if idx == core.IndexIdentityUserProvider {
			return []any{r.UserID, r.Provider}, nil
		}
		return []any{r.Provider, r.ProviderUserID}, nil
	}
	return nil, fmt.Errorf("memory: unknown record type for %s/%s: %w", col, idx, core.ErrInvalid)
}

func (t *tx) Get(col core.Collection, id string) (core.Record, error) {
	raw, err := t.txn.First(string(col), "id", id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("memory: %s %s: %w", col, id, core.ErrNotFound)
	}
	return clone(raw.(core.Record)), nil
}

func (t *tx) First(col core.Collection, index string, args ...any) (core.Record, error) {
	raw, err := t.txn.First(string(col), indexName(col, index, args), args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("memory: %s by %s: %w", col, index, core.ErrNotFound)
	}
	return clone(raw.(core.Record)), nil
}

func (t *tx) List(col core.Collection, index string, args ...any) ([]core.Record, error) {
	it, err := t.txn.Get(string(col), indexName(col, index, args), args...)
	if err != nil {
		return nil, err
	}
	var out []core.Record
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, clone(raw.(core.Record)))
	}
	return out, nil
}

// indexName resuelve lookups parciales sobre índices compuestos: un solo
// argumento contra el índice (client_id, version) es un scan por prefijo.
func indexName(col core.Collection, index string, args []any) string {
	if col == core.ClientVersions && index == core.IndexVersionClient && len(args) == 1 {
		return index + "_prefix"
	}
	return index
}

func (t *tx) Put(col core.Collection, rec core.Record) error {
	if !t.write {
		return fmt.Errorf("memory: put in read-only tx: %w", core.ErrInvalid)
	}
	raw, err := t.txn.First(string(col), "id", rec.RecordID())
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("memory: %s %s: %w", col, rec.RecordID(), core.ErrNotFound)
	}
	if raw.(core.Record).Revision() != rec.Revision() {
		return fmt.Errorf("memory: %s %s stale rev: %w", col, rec.RecordID(), core.ErrConflict)
	}
	next := clone(rec)
	bumpRev(next)
	return t.txn.Insert(string(col), next)
}

func (t *tx) Delete(col core.Collection, id string) error {
	if !t.write {
		return fmt.Errorf("memory: delete in read-only tx: %w", core.ErrInvalid)
	}
	raw, err := t.txn.First(string(col), "id", id)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("memory: %s %s: %w", col, id, core.ErrNotFound)
	}
	for _, ref := range core.ReferencedBy[col] {
		idx := ref.Index
		if ref.Col == core.ClientVersions && idx == core.IndexVersionClient {
			idx = idx + "_prefix"
		}
		child, err := t.txn.First(string(ref.Col), idx, id)
		if err != nil {
			return err
		}
		if child != nil {
			return fmt.Errorf("memory: %s %s referenced by %s: %w", col, id, ref.Col, core.ErrIntegrity)
		}
	}
	return t.txn.Delete(string(col), raw)
}

// clone copia el registro: los objetos dentro de memdb son inmutables y
// los callers no deben compartir punteros con el snapshot.
func clone(rec core.Record) core.Record {
	switch r := rec.(type) {
	case *core.Tenant:
		c := *r
		return &c
	case *core.Client:
		c := *r
		return &c
	case *core.ClientVersion:
		c := *r
		if r.EffectiveFrom != nil {
			ts := *r.EffectiveFrom
			c.EffectiveFrom = &ts
		}
		return &c
	case *core.AppUser:
		c := *r
		return &c
	case *core.Identity:
		c := *r
		return &c
	}
	return rec
}

func bumpRev(rec core.Record) {
	switch r := rec.(type) {
	case *core.Tenant:
		r.Rev++
	case *core.Client:
		r.Rev++
	case *core.ClientVersion:
		r.Rev++
	case *core.AppUser:
		r.Rev++
	case *core.Identity:
		r.Rev++
	}
}
