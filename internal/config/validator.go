package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"facetimer/backend/internal/logging"
	"facetimer/backend/internal/model"
)

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every field and returns all problems joined together.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Server.Port) == "" {
		add("server.port", "must not be empty")
	}
	if c.Server.ShutdownTimeout < 0 {
		add("server.shutdown_timeout", "must not be negative")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.DBPath == "" {
			add("storage.db_path", "required for the sqlite driver")
		}
		if c.Storage.MigrationsDir == "" {
			add("storage.migrations_dir", "required for the sqlite driver")
		}
	case DriverMemory:
	default:
		add("storage.driver", "must be %q or %q, got %q", DriverSQLite, DriverMemory, c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		add("auth.jwt_secret", "must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		add("auth.token_ttl", "must be positive")
	}

	if c.Timer.DefaultDurationSeconds <= 0 {
		add("timer.default_duration_seconds", "must be positive")
	}
	if c.Timer.MaxDurationSeconds < 0 {
		add("timer.max_duration_seconds", "must not be negative")
	}
	if c.Timer.MaxDurationSeconds > 0 && c.Timer.DefaultDurationSeconds > c.Timer.MaxDurationSeconds {
		add("timer.default_duration_seconds", "must not exceed timer.max_duration_seconds (%d)", c.Timer.MaxDurationSeconds)
	}
	if utf8.RuneCountInString(c.Timer.DefaultName) > model.MaxTimerNameLength {
		add("timer.default_name", "must be at most %d characters", model.MaxTimerNameLength)
	}
	if c.Timer.TickInterval < 0 {
		add("timer.tick_interval", "must not be negative")
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		add("rate_limit.requests_per_second", "must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		add("rate_limit.burst", "must be positive when rate limiting is enabled")
	}

	if !logging.ValidLevel(c.Logging.Level) {
		add("logging.level", "unknown level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatJSON, logging.FormatText:
	default:
		add("logging.format", "must be %q or %q", logging.FormatJSON, logging.FormatText)
	}

	return errors.Join(errs...)
}
