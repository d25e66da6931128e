package main

import (
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/worstcrm/config"
	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	srv "github.com/mohammad-safakhou/worstcrm/internal/server"
)

func migrateCMD() *cobra.Command {
	var migDir string
	var direction string
	var steps int
	var cfgPath string

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			dsn, err := runtime.BuildPostgresDSN(cfg)
			if err != nil {
				return err
			}
			if migDir == "" {
				migDir = cfg.Server.MigrationsDir
			}
			return srv.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", "", "migrations source (default server.migrations_dir)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	migrate.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return migrate
}
