// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"` // json|console
	Sampling bool   `yaml:"sampling"`                // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port" env:"HTTP_PORT"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"ADMIN_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL           string `yaml:"url" env:"DATABASE_URL"`
	MaxConns      int32  `yaml:"max_conns"`
	RunMigrations bool   `yaml:"run_migrations"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" env:"REDIS_URL"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// PromoConfig tunes redemption.
type PromoConfig struct {
	RedeemMaxAttempts int           `yaml:"redeem_max_attempts"`
	Isolation         string        `yaml:"isolation"` // read_committed | repeatable_read | serializable
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	RateLimit         int           `yaml:"rate_limit"`  // redemption attempts per user per window
	RateWindow        time.Duration `yaml:"rate_window"` // fixed window length
}

// PricingConfig feeds the default price calculator.
// Monthly maps device count to the undiscounted price of one month.
type PricingConfig struct {
	Currency string         `yaml:"currency"`
	Monthly  map[int]string `yaml:"monthly"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Promo    PromoConfig    `yaml:"promo"`
	Pricing  PricingConfig  `yaml:"pricing"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies environment overrides,
// fills defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse is LoadConfig without the file read.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL, time.Hour)
	if cfg.Promo.RedeemMaxAttempts <= 0 {
		cfg.Promo.RedeemMaxAttempts = 3
	}
	if cfg.Promo.Isolation == "" {
		cfg.Promo.Isolation = "read_committed"
	}
	cfg.Promo.CacheTTL = normalizeTTL(cfg.Promo.CacheTTL, time.Minute)
	if cfg.Promo.RateLimit <= 0 {
		cfg.Promo.RateLimit = 5
	}
	cfg.Promo.RateWindow = normalizeTTL(cfg.Promo.RateWindow, time.Minute)
	if cfg.Pricing.Currency == "" {
		cfg.Pricing.Currency = "RUB"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if len(cfg.Pricing.Monthly) == 0 {
		return nil, errors.New("pricing.monthly is required")
	}
	switch strings.ToLower(cfg.Promo.Isolation) {
	case "read_committed", "repeatable_read", "serializable":
	default:
		return nil, fmt.Errorf("promo.isolation %q is not supported", cfg.Promo.Isolation)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
