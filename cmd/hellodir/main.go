// hellodir es el binario del directorio: serve, migrate y seed.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellodir/internal/config"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
)

func main() {
	var (
		configPath string
		cfg        *config.Config
	)

	root := &cobra.Command{
		Use:           "hellodir",
		Short:         "Directorio multi-tenant de tenants, clients y usuarios",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional; los valores reales vienen de YAML + env.
			_ = godotenv.Load()

			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath)
			} else {
				cfg = config.Default()
			}
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.App.LogLevel,
				ServiceName: "hellodir",
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("HELLODIR_CONFIG"),
		"Path al YAML de configuración (env HELLODIR_CONFIG; vacío = env + defaults)")

	root.AddCommand(
		newServeCmd(func() *config.Config { return cfg }),
		newMigrateCmd(func() *config.Config { return cfg }),
		newSeedCmd(func() *config.Config { return cfg }),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
