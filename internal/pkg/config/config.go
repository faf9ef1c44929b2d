package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session backends.
const (
	SessionFile   = "file"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=warn"`

	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Metrics MetricsConfig
}

type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:3000"`
	Prefix  string        `env:"API_PREFIX,   default=/api"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=15s"`
}

type SessionConfig struct {
	Backend string `env:"SESSION_BACKEND, default=file"`
	// Path of the token file; defaults to ~/.docapprove/session.json.
	Path string `env:"SESSION_PATH"`
	// Key is the well-known storage key of the token.
	Key string `env:"SESSION_KEY, default=docapprove:auth_token"`
}

type MetricsConfig struct {
	// File receives the metrics in text exposition format when the command
	// ends, for the node_exporter textfile collector. Empty disables export.
	File string `env:"METRICS_FILE"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Session.Backend == SessionFile && cfg.Session.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home dir: %w", err)
		}
		cfg.Session.Path = filepath.Join(home, ".docapprove", "session.json")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: API_BASE_URL %q must be an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: API_TIMEOUT must be positive")
	}
	switch c.Session.Backend {
	case SessionFile, SessionRedis, SessionMemory:
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Session.Key == "" {
		return fmt.Errorf("config: SESSION_KEY must not be empty")
	}
	return nil
}
