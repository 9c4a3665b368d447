// Package config reads the DELIVERY_* environment (optionally seeded from a
// .env file) into a validated Config and opens the database it points at.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "DELIVERY_"

const (
	ServiceAccount      = "account"
	ServiceNotification = "notification"
	ServiceOrder        = "order"
)

type Config struct {
	Port    string `koanf:"port" validate:"required"`
	GinMode string `koanf:"gin_mode" validate:"oneof=debug release test"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	DBDriver string `koanf:"db_driver" validate:"oneof=sqlite mysql"`
	DBDSN    string `koanf:"db_dsn" validate:"required"`

	// Services lists the handler groups mounted by this process.
	Services []string `koanf:"services" validate:"min=1,dive,oneof=account notification order"`

	AccountServiceURL      string `koanf:"account_service_url" validate:"omitempty,url"`
	NotificationServiceURL string `koanf:"notification_service_url" validate:"omitempty,url"`
	HTTPTimeoutSeconds     int    `koanf:"http_timeout_seconds" validate:"gt=0"`

	DispatchIntervalMS  int `koanf:"dispatch_interval_ms" validate:"gt=0"`
	DispatchMaxAttempts int `koanf:"dispatch_max_attempts" validate:"gt=0"`

	JWTSecret          string   `koanf:"jwt_secret" validate:"required"`
	LoginRatePerMinute int      `koanf:"login_rate_per_minute" validate:"gt=0"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	SeedNotificationTypes bool `koanf:"seed_notification_types"`
}

// Default returns the configuration used for anything the environment
// leaves unset. There is no default JWT secret; it must be configured.
func Default() *Config {
	return &Config{
		Port:                  "8080",
		GinMode:               "debug",
		LogLevel:              "info",
		LogFormat:             "text",
		DBDriver:              "sqlite",
		DBDSN:                 "delivery.db",
		Services:              []string{ServiceAccount, ServiceNotification, ServiceOrder},
		HTTPTimeoutSeconds:    10,
		DispatchIntervalMS:    1000,
		DispatchMaxAttempts:   5,
		LoginRatePerMinute:    20,
		CORSAllowedOrigins:    []string{"*"},
		SeedNotificationTypes: true,
	}
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(EnvPrefix)
}

// FromEnv builds a Config from variables carrying prefix, on top of Default.
func FromEnv(prefix string) (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, prefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	defaults := Default()
	cfg := Default()
	cfg.Services, cfg.CORSAllowedOrigins = nil, nil
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Services = cleanList(cfg.Services); len(cfg.Services) == 0 {
		cfg.Services = defaults.Services
	}
	if cfg.CORSAllowedOrigins = cleanList(cfg.CORSAllowedOrigins); len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = defaults.CORSAllowedOrigins
	}
	cfg.AccountServiceURL = strings.TrimRight(cfg.AccountServiceURL, "/")
	cfg.NotificationServiceURL = strings.TrimRight(cfg.NotificationServiceURL, "/")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Enabled reports whether the named handler group is mounted.
func (c *Config) Enabled(service string) bool {
	for _, s := range c.Services {
		if s == service {
			return true
		}
	}
	return false
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) DispatchInterval() time.Duration {
	return time.Duration(c.DispatchIntervalMS) * time.Millisecond
}

// cleanList flattens comma separated entries and drops blanks.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
