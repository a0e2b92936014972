package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/hellodir/internal/store/core"
	"github.com/dropDatabas3/hellodir/internal/store/memory"
	"github.com/dropDatabas3/hellodir/internal/store/mysql"
	"github.com/dropDatabas3/hellodir/internal/store/pg"
)

type Config struct {
	Driver   string
	DSN      string
	Postgres pg.Config
}

// Open crea el entity store según el driver configurado.
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "memory", "":
		return memory.New()
	case "postgres", "pg", "postgresql":
		return pg.New(ctx, cfg.DSN, cfg.Postgres)
	case "mysql":
		return mysql.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
