package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/config"
	"github.com/dropDatabas3/hellodir/internal/directory"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
	"github.com/dropDatabas3/hellodir/internal/security/material"
	"github.com/dropDatabas3/hellodir/internal/store"
)

// seed crea un tenant de desarrollo con un client (versión 1 activa) y
// un usuario. Imprime el secreto del client por stdout una única vez.
func newSeedCmd(cfg func() *config.Config) *cobra.Command {
	var (
		slug     string
		name     string
		clientID string
		email    string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea datos de desarrollo (tenant + client activo + usuario)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := store.Open(ctx, store.Config{
				Driver: c.Storage.Driver,
				DSN:    c.Storage.DSN,
			})
			if err != nil {
				return err
			}
			defer st.Close()

			dir := directory.New(st)
			log := logger.L()

			t, err := dir.CreateTenant(ctx, slug, name)
			if err != nil {
				return fmt.Errorf("create tenant: %w", err)
			}

			cl, err := dir.RegisterClient(ctx, t.ID, clientID)
			if err != nil {
				return fmt.Errorf("register client: %w", err)
			}

			secret, err := material.GenerateSecret()
			if err != nil {
				return err
			}
			hash, err := material.Hash(material.Default, secret)
			if err != nil {
				return err
			}
			v, err := dir.CreateVersion(ctx, cl.ClientID, hash)
			if err != nil {
				return fmt.Errorf("create version: %w", err)
			}
			if _, err := dir.ActivateVersion(ctx, cl.ClientID, v.Version); err != nil {
				return fmt.Errorf("activate version: %w", err)
			}

			u, err := dir.CreateUser(ctx, t.ID, email)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			log.Info("seed completed",
				zap.String("tenant", t.Slug),
				zap.String("client_id", cl.ClientID),
				zap.Int("active_version", v.Version),
				zap.String("user", u.Email),
			)
			fmt.Printf("tenant_id=%s\nclient_id=%s\nclient_secret=%s\nuser_id=%s\n",
				t.ID, cl.ClientID, secret, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "tenant-slug", "acme", "Slug del tenant")
	cmd.Flags().StringVar(&name, "tenant-name", "Acme Inc.", "Nombre del tenant")
	cmd.Flags().StringVar(&clientID, "client-id", "acme-web", "client_id a registrar")
	cmd.Flags().StringVar(&email, "email", "dev@acme.test", "Email del usuario")
	return cmd
}
