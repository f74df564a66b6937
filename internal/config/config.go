package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"facetimer/backend/internal/logging"
)

const EnvPrefix = "FACETIMER"

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Timer     TimerConfig     `mapstructure:"timer"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	// Driver is "sqlite" or "memory"
	Driver        string `mapstructure:"driver"`
	DBPath        string `mapstructure:"db_path"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type TimerConfig struct {
	// DefaultDurationSeconds is used when a create request omits the duration
	DefaultDurationSeconds int `mapstructure:"default_duration_seconds"`
	// MaxDurationSeconds caps new timers (0 = unlimited)
	MaxDurationSeconds int    `mapstructure:"max_duration_seconds"`
	DefaultName        string `mapstructure:"default_name"`
	// TickInterval drives the background countdown (0 disables it)
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type RateLimitConfig struct {
	// RequestsPerSecond per client IP (0 disables limiting)
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			CORSOrigins:     []string{"http://localhost:5173", "http://127.0.0.1:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:        DriverSQLite,
			DBPath:        "./data/facetimer.db",
			MigrationsDir: "./migrations",
		},
		Auth: AuthConfig{
			JWTSecret: "change-this-secret",
			TokenTTL:  72 * time.Hour,
		},
		Timer: TimerConfig{
			DefaultDurationSeconds: 60,
			MaxDurationSeconds:     3600,
			DefaultName:            "Timer",
			TickInterval:           time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
	}
}

// Loader reads configuration from defaults, an optional config file, a .env
// file and FACETIMER_* environment variables, in increasing precedence.
type Loader struct {
	v          *viper.Viper
	configFile string
	mu         sync.Mutex
}

// NewLoader prepares a loader. An empty configFile searches for config.yaml
// in the working directory and does not fail when none exists.
func NewLoader(configFile string) *Loader {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")

	return &Loader{v: v, configFile: configFile}
}

func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// OnChange watches the config file and calls fn with each valid reload.
// Invalid reloads are passed to onError and the previous config stays in effect.
// It does nothing when no config file is in use.
func (l *Loader) OnChange(fn func(*Config), onError func(error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		l.mu.Lock()
		cfg, err := l.decode()
		l.mu.Unlock()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		fn(cfg)
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("storage.migrations_dir", d.Storage.MigrationsDir)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)

	v.SetDefault("timer.default_duration_seconds", d.Timer.DefaultDurationSeconds)
	v.SetDefault("timer.max_duration_seconds", d.Timer.MaxDurationSeconds)
	v.SetDefault("timer.default_name", d.Timer.DefaultName)
	v.SetDefault("timer.tick_interval", d.Timer.TickInterval)

	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// splitList flattens comma separated entries, which is how list values
// arrive from environment variables.
func splitList(values []string) []string {
	items := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}
