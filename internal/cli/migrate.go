package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"facetimer/backend/internal/config"
	"facetimer/backend/internal/db"
)

func newMigrateCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the sqlite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, logger, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.DriverSQLite {
				return fmt.Errorf("migrate requires the %s driver, got %q", config.DriverSQLite, cfg.Storage.Driver)
			}

			database, err := db.OpenSQLite(cfg.Storage.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			applied, err := db.RunMigrations(cmd.Context(), database, cfg.Storage.MigrationsDir, logger.Logger)
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migrations applied to %s\n", len(applied), cfg.Storage.DBPath)
			return nil
		},
	}
}
