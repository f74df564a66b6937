package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"facetimer/backend/internal/config"
	"facetimer/backend/internal/db"
	"facetimer/backend/internal/logging"
	"facetimer/backend/internal/repository"
	"facetimer/backend/internal/service"
)

// stores holds the repositories selected by storage.driver.
type stores struct {
	timers   service.TimerStore
	users    service.UserStore
	database *sql.DB
}

func (s *stores) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}

func loadConfig(configFile string) (*config.Loader, *config.Config, *logging.Logger, error) {
	loader := config.NewLoader(configFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(logger.Logger)
	return loader, cfg, logger, nil
}

// openStores opens the configured backend. For sqlite the schema is migrated
// before any repository is handed out.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; timers are lost on restart")
		return &stores{
			timers: repository.NewMemoryTimerRepository(),
			users:  repository.NewMemoryUserRepository(),
		}, nil
	case config.DriverSQLite:
		database, err := openMigratedSQLite(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &stores{
			timers:   repository.NewTimerRepository(database),
			users:    repository.NewUserRepository(database),
			database: database,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openMigratedSQLite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	database, err := db.OpenSQLite(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.RunMigrations(ctx, database, cfg.Storage.MigrationsDir, logger); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return database, nil
}
