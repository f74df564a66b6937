package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"facetimer/backend/internal/config"
	"facetimer/backend/internal/handler"
	"facetimer/backend/internal/router"
	"facetimer/backend/internal/service"
)

func newServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background ticker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func runServe(ctx context.Context, configFile string) error {
	loader, cfg, logger, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := openStores(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	loader.OnChange(func(next *config.Config) {
		logger.SetLevel(next.Logging.Level)
		logger.Info("config reloaded", "file", loader.ConfigFileUsed(), "log_level", next.Logging.Level)
	}, func(err error) {
		logger.Error("config reload rejected", "error", err)
	})

	authService := service.NewAuthService(backends.users, nil, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	timerService := service.NewTimerService(backends.timers, nil, service.Limits{
		MaxDurationSeconds: cfg.Timer.MaxDurationSeconds,
		DefaultName:        cfg.Timer.DefaultName,
	}, logger.Logger)

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewTimerHandler(timerService, cfg.Timer.DefaultDurationSeconds),
		handler.NewUrgencyHandler(),
		router.Options{
			CORSOrigins:       cfg.Server.CORSOrigins,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			Logger:            logger.Logger,
		},
	)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		service.NewTicker(timerService, cfg.Timer.TickInterval, logger.Logger).Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("backend listening", "addr", server.Addr, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			stop()
			<-tickerDone
			return fmt.Errorf("run server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	stop()
	<-tickerDone
	logger.Info("server stopped")
	return nil
}
