package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/config"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
	migrations "github.com/dropDatabas3/hellodir/migrations/postgres"
)

func newMigrateCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down] [steps]",
		Short: "Aplica las migraciones embebidas contra PostgreSQL",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			steps := 0
			if len(args) >= 1 {
				action = strings.ToLower(args[0])
			}
			if len(args) >= 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[1])
				}
				steps = n
			}

			ctx := context.Background()
			pool, err := pgxpool.New(ctx, cfg().Storage.DSN)
			if err != nil {
				return fmt.Errorf("pgxpool: %w", err)
			}
			defer pool.Close()

			switch action {
			case "up":
				return runMigrations(ctx, pool, "_up.sql", steps, false)
			case "down":
				return runMigrations(ctx, pool, "_down.sql", steps, true)
			default:
				return fmt.Errorf("unknown action %q, use: up | down [steps]", action)
			}
		},
	}
}

// runMigrations aplica los archivos embebidos con el sufijo dado en
// orden por nombre (inverso para down). steps > 0 limita cuántos.
func runMigrations(ctx context.Context, pool *pgxpool.Pool, suffix string, steps int, reverse bool) error {
	log := logger.L()

	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		log.Info("no migrations to apply", zap.String("suffix", suffix))
		return nil
	}
	sort.Strings(files)
	if reverse {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}

	for _, f := range files {
		sql, err := migrations.FS.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		log.Info("migration applied", zap.String("file", f))
	}
	log.Info("migrations completed", zap.Int("count", len(files)))
	return nil
}
