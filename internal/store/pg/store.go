// Package pg implementa el entity store sobre PostgreSQL (pgx/v5).
//
// Las constraints de unicidad viven en el schema SQL (ver
// migrations/postgres) y se mapean a core.ErrConflict; las foreign keys
// con RESTRICT se mapean a core.ErrIntegrity. Las transacciones son
// pgx.Tx reales: rollback garantizado si el caller abandona.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellodir/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

type Config struct {
	MaxOpenConns    int
	MinIdleConns    int
	ConnMaxLifetime string
}

func New(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MinIdleConns > 0 {
		pcfg.MinConns = int32(cfg.MinIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (migraciones/metrics).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return mapErr(s.pool.Ping(ctx)) }

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(core.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

func (s *Store) Update(ctx context.Context, fn func(core.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, fn func(core.Tx) error) error {
	ptx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = ptx.Rollback(ctx) }()

	if err := fn(&tx{ctx: ctx, tx: ptx}); err != nil {
		return err
	}
	return mapErr(ptx.Commit(ctx))
}

// mapErr traduce errores del backend a los sentinels de core.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("pg: %s: %w", pgErr.ConstraintName, core.ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("pg: %s: %w", pgErr.ConstraintName, core.ErrIntegrity)
		case "40001": // serialization_failure: para el caller es un conflicto
			return fmt.Errorf("pg: serialization failure: %w", core.ErrConflict)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("pg: %w", core.ErrTimeout)
	}
	return err
}

type tx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *tx) Insert(col core.Collection, rec core.Record) error {
	var err error
	switch r := rec.(type) {
	case *core.Tenant:
		_, err = t.tx.Exec(t.ctx, `
INSERT INTO tenant (id, rev, slug, display_name, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.Rev, r.Slug, r.DisplayName, r.Status, r.CreatedAt)
	case *core.Client:
		_, err = t.tx.Exec(t.ctx, `
INSERT INTO client (id, rev, tenant_id, client_id, created_at)
VALUES ($1, $2, $3, $4, $5)`,
			r.ID, r.Rev, r.TenantID, r.ClientID, r.CreatedAt)
	case *core.ClientVersion:
		_, err = t.tx.Exec(t.ctx, `
INSERT INTO client_version (id, rev, client_id, version, status, material_hash, effective_from, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.ID, r.Rev, r.ClientID, r.Version, r.Status, r.MaterialHash, r.EffectiveFrom, r.CreatedAt)
	case *core.AppUser:
		_, err = t.tx.Exec(t.ctx, `
INSERT INTO app_user (id, rev, tenant_id, email, created_at)
VALUES ($1, $2, $3, $4, $5)`,
			r.ID, r.Rev, r.TenantID, r.Email, r.CreatedAt)
	case *core.Identity:
		_, err = t.tx.Exec(t.ctx, `
INSERT INTO identity (id, rev, user_id, provider, provider_user_id, linked_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.Rev, r.UserID, r.Provider, r.ProviderUserID, r.LinkedAt)
	default:
		return fmt.Errorf("pg: unknown record type for %s: %w", col, core.ErrInvalid)
	}
	return mapErr(err)
}

func (t *tx) Get(col core.Collection, id string) (core.Record, error) {
	return t.queryOne(col, selectFor(col)+` WHERE id = $1`, id)
}

func (t *tx) First(col core.Collection, index string, args ...any) (core.Record, error) {
	where, order, err := whereFor(col, index, len(args))
	if err != nil {
		return nil, err
	}
	return t.queryOne(col, selectFor(col)+where+order+` LIMIT 1`, args...)
}

func (t *tx) List(col core.Collection, index string, args ...any) ([]core.Record, error) {
	where, order, err := whereFor(col, index, len(args))
	if err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(t.ctx, selectFor(col)+where+order, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := scan(col, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, mapErr(rows.Err())
}

func (t *tx) Put(col core.Collection, rec core.Record) error {
	var tag pgconn.CommandTag
	var err error
	switch r := rec.(type) {
	case *core.Tenant:
		tag, err = t.tx.Exec(t.ctx, `
UPDATE tenant SET rev = rev + 1, slug = $3, display_name = $4, status = $5
WHERE id = $1 AND rev = $2`,
			r.ID, r.Rev, r.Slug, r.DisplayName, r.Status)
	case *core.Client:
		tag, err = t.tx.Exec(t.ctx, `
UPDATE client SET rev = rev + 1, tenant_id = $3, client_id = $4
WHERE id = $1 AND rev = $2`,
			r.ID, r.Rev, r.TenantID, r.ClientID)
	case *core.ClientVersion:
		tag, err = t.tx.Exec(t.ctx, `
UPDATE client_version SET rev = rev + 1, status = $3, material_hash = $4, effective_from = $5
WHERE id = $1 AND rev = $2`,
			r.ID, r.Rev, r.Status, r.MaterialHash, r.EffectiveFrom)
	case *core.AppUser:
		tag, err = t.tx.Exec(t.ctx, `
UPDATE app_user SET rev = rev + 1, email = $3
WHERE id = $1 AND rev = $2`,
			r.ID, r.Rev, r.Email)
	case *core.Identity:
		tag, err = t.tx.Exec(t.ctx, `
UPDATE identity SET rev = rev + 1, provider = $3, provider_user_id = $4
WHERE id = $1 AND rev = $2`,
			r.ID, r.Rev, r.Provider, r.ProviderUserID)
	default:
		return fmt.Errorf("pg: unknown record type for %s: %w", col, core.ErrInvalid)
	}
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguir "no existe" de "rev viejo".
		var exists bool
		if err := t.tx.QueryRow(t.ctx,
			fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table(col)),
			rec.RecordID()).Scan(&exists); err != nil {
			return mapErr(err)
		}
		if !exists {
			return fmt.Errorf("pg: %s %s: %w", col, rec.RecordID(), core.ErrNotFound)
		}
		return fmt.Errorf("pg: %s %s stale rev: %w", col, rec.RecordID(), core.ErrConflict)
	}
	return nil
}

func (t *tx) Delete(col core.Collection, id string) error {
	tag, err := t.tx.Exec(t.ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table(col)), id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pg: %s %s: %w", col, id, core.ErrNotFound)
	}
	return nil
}

func (t *tx) queryOne(col core.Collection, q string, args ...any) (core.Record, error) {
	rows, err := t.tx.Query(t.ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, mapErr(err)
		}
		return nil, fmt.Errorf("pg: %s: %w", col, core.ErrNotFound)
	}
	return scan(col, rows)
}

func table(col core.Collection) string { return string(col) }

func selectFor(col core.Collection) string {
	switch col {
	case core.Tenants:
		return `SELECT id, rev, slug, display_name, status, created_at FROM tenant`
	case core.Clients:
		return `SELECT id, rev, tenant_id, client_id, created_at FROM client`
	case core.ClientVersions:
		return `SELECT id, rev, client_id, version, status, material_hash, effective_from, created_at FROM client_version`
	case core.AppUsers:
		return `SELECT id, rev, tenant_id, email, created_at FROM app_user`
	case core.Identities:
		return `SELECT id, rev, user_id, provider, provider_user_id, linked_at FROM identity`
	}
	return ""
}

// whereFor traduce (colección, índice) a la cláusula SQL correspondiente.
// Mantiene el contrato del schema: cada lookup del directorio es un
// índice declarado, nunca un scan con predicado arbitrario.
func whereFor(col core.Collection, index string, nargs int) (where, order string, err error) {
	switch {
	case col == core.Tenants && index == core.IndexTenantSlug:
		return ` WHERE slug = $1`, ``, nil
	case col == core.Clients && index == core.IndexClientClientID:
		return ` WHERE client_id = $1`, ``, nil
	case col == core.Clients && index == core.IndexClientTenant:
		return ` WHERE tenant_id = $1`, ` ORDER BY created_at`, nil
	case col == core.ClientVersions && index == core.IndexVersionClientOrdinal:
		return ` WHERE client_id = $1 AND version = $2`, ``, nil
	case col == core.ClientVersions && index == core.IndexVersionClientStatus:
		return ` WHERE client_id = $1 AND status = $2`, ` ORDER BY version`, nil
	case col == core.ClientVersions && index == core.IndexVersionClient:
		return ` WHERE client_id = $1`, ` ORDER BY version`, nil
	case col == core.AppUsers && index == core.IndexUserTenantEmail:
		return ` WHERE tenant_id = $1 AND lower(email) = lower($2)`, ``, nil
	case col == core.AppUsers && index == core.IndexUserTenant:
		return ` WHERE tenant_id = $1`, ` ORDER BY created_at`, nil
	case col == core.Identities && index == core.IndexIdentityProviderUser:
		return ` WHERE provider = $1 AND provider_user_id = $2`, ``, nil
	case col == core.Identities && index == core.IndexIdentityUser:
		return ` WHERE user_id = $1`, ` ORDER BY linked_at`, nil
	case col == core.Identities && index == core.IndexIdentityUserProvider:
		return ` WHERE user_id = $1 AND provider = $2`, ``, nil
	}
	return ``, ``, fmt.Errorf("pg: unknown index %s/%s: %w", col, index, core.ErrInvalid)
}

func scan(col core.Collection, rows pgx.Rows) (core.Record, error) {
	switch col {
	case core.Tenants:
		var r core.Tenant
		if err := rows.Scan(&r.ID, &r.Rev, &r.Slug, &r.DisplayName, &r.Status, &r.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		return &r, nil
	case core.Clients:
		var r core.Client
		if err := rows.Scan(&r.ID, &r.Rev, &r.TenantID, &r.ClientID, &r.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		return &r, nil
	case core.ClientVersions:
		var r core.ClientVersion
		if err := rows.Scan(&r.ID, &r.Rev, &r.ClientID, &r.Version, &r.Status, &r.MaterialHash, &r.EffectiveFrom, &r.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		return &r, nil
	case core.AppUsers:
		var r core.AppUser
		if err := rows.Scan(&r.ID, &r.Rev, &r.TenantID, &r.Email, &r.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		return &r, nil
	case core.Identities:
		var r core.Identity
		if err := rows.Scan(&r.ID, &r.Rev, &r.UserID, &r.Provider, &r.ProviderUserID, &r.LinkedAt); err != nil {
			return nil, mapErr(err)
		}
		return &r, nil
	}
	return nil, fmt.Errorf("pg: unknown collection %s: %w", col, core.ErrInvalid)
}
