package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds the server settings read from the environment.
type Config struct {
	Port        string `env:"PORT,default=3001"`
	DatabaseURL string `env:"DATABASE_URL,default=sqlite://cleancook.db"`
	GinMode     string `env:"GIN_MODE"`

	UploadDir string `env:"UPLOAD_DIR,default=./uploads"`

	CORSOrigin     string `env:"CORS_ORIGIN,default=*"`
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX,default=100"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW,default=15m"`
	RedisURL        string        `env:"REDIS_URL"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	// Cron spec for the counter reconciler. Unset means DefaultReconcileSchedule,
	// set but empty disables it.
	ReconcileSchedule string `env:"RECONCILE_SCHEDULE"`
}

// DefaultReconcileSchedule applies when RECONCILE_SCHEDULE is not set at all.
const DefaultReconcileSchedule = "@every 1h"

// Load reads an optional .env file and decodes the environment into a Config.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	foundDotEnv := godotenv.Load() == nil

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, foundDotEnv, err
	}
	// envdecode cannot tell unset from empty.
	if _, ok := os.LookupEnv("RECONCILE_SCHEDULE"); !ok {
		cfg.ReconcileSchedule = DefaultReconcileSchedule
	}
	return &cfg, foundDotEnv, nil
}

// Proxies splits TRUSTED_PROXIES into a list. An empty value trusts no proxy.
func (c *Config) Proxies() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
