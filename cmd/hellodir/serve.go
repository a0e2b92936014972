package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellodir/internal/config"
	"github.com/dropDatabas3/hellodir/internal/http/server"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
)

func newServeCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servicio HTTP del directorio",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg())
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}
