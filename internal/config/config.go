// Package config loads process configuration from an optional YAML file and
// environment overrides. The resulting Config is built once at start-up and
// passed explicitly to the components that need it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultConfigPath       = "config.yaml"
	DefaultListenAddr       = ":5000"
	DefaultDatabaseDSN      = "file:data/estatehub.db"
	DefaultAccessTokenTTL   = 15 * time.Minute
	DefaultRefreshTokenTTL  = 7 * 24 * time.Hour
	DefaultBcryptCost       = 12
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 30 * time.Minute
	DefaultUploadDir        = "uploads"
	DefaultAdminEmail       = "admin@realestate.com"
	DefaultAdminPassword    = "Admin@12345"
	DefaultRetentionEvery   = time.Hour
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate-limit"`
	Log       LogConfig       `yaml:"log"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Seed      SeedConfig      `yaml:"seed"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
	TrustedProxies  []string      `yaml:"trusted-proxies"`
	CORSOrigins     []string      `yaml:"cors-origins"`
}

// DatabaseConfig holds the database connection string.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds the optional Redis connection used for rate limiting.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	AccessTTL  time.Duration `yaml:"access-ttl"`
	RefreshTTL time.Duration `yaml:"refresh-ttl"`
}

// AuthConfig holds credential and lockout settings.
type AuthConfig struct {
	BcryptCost        int           `yaml:"bcrypt-cost"`
	MaxLoginAttempts  int           `yaml:"max-login-attempts"`
	LockDuration      time.Duration `yaml:"lock-duration"`
	AllowRegistration bool          `yaml:"allow-registration"`
}

// RateLimitConfig holds per-IP request throttling for public auth endpoints.
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	LoginWindow    time.Duration `yaml:"login-window"`
	LoginMax       int           `yaml:"login-max"`
	RegisterWindow time.Duration `yaml:"register-window"`
	RegisterMax    int           `yaml:"register-max"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
}

// UploadsConfig holds the image upload directory.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// SeedConfig controls creation of a default admin on first start.
type SeedConfig struct {
	Enabled       bool   `yaml:"enabled"`
	AdminEmail    string `yaml:"admin-email"`
	AdminPassword string `yaml:"admin-password"`
}

// RetentionConfig controls the expired refresh token cleaner.
type RetentionConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            DefaultListenAddr,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{DSN: DefaultDatabaseDSN},
		JWT: JWTConfig{
			AccessTTL:  DefaultAccessTokenTTL,
			RefreshTTL: DefaultRefreshTokenTTL,
		},
		Auth: AuthConfig{
			BcryptCost:       DefaultBcryptCost,
			MaxLoginAttempts: DefaultMaxLoginAttempts,
			LockDuration:     DefaultLockDuration,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			LoginWindow:    15 * time.Minute,
			LoginMax:       20,
			RegisterWindow: time.Hour,
			RegisterMax:    5,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
		Uploads:   UploadsConfig{Dir: DefaultUploadDir},
		Seed:      SeedConfig{AdminEmail: DefaultAdminEmail, AdminPassword: DefaultAdminPassword},
		Retention: RetentionConfig{Interval: DefaultRetentionEvery},
	}
}

// ResolveConfigPath returns the configuration file path to use. An explicit
// path wins, then CONFIG_PATH, then DefaultConfigPath when that file exists.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv("CONFIG_PATH")); env != "" {
		return env
	}
	if _, errStat := os.Stat(DefaultConfigPath); errStat == nil {
		return DefaultConfigPath
	}
	return ""
}

// Load reads configuration from path (optional) and applies environment
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, errRead := os.ReadFile(path)
		if errRead != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	}
	if errEnv := applyEnv(&cfg, os.LookupEnv); errEnv != nil {
		return nil, errEnv
	}
	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, fmt.Errorf("config: %w", errValidate)
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("jwt secret is required (JWT_ACCESS_SECRET)"))
	}
	if c.JWT.AccessTTL <= 0 {
		errs = append(errs, errors.New("jwt access-ttl must be positive"))
	}
	if c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt refresh-ttl must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt-cost %d out of range [4,31]", c.Auth.BcryptCost))
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("max-login-attempts must be positive"))
	}
	if c.Auth.LockDuration <= 0 {
		errs = append(errs, errors.New("lock-duration must be positive"))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.LoginMax <= 0 || c.RateLimit.LoginWindow <= 0 {
			errs = append(errs, errors.New("rate-limit login window and max must be positive"))
		}
		if c.RateLimit.RegisterMax <= 0 || c.RateLimit.RegisterWindow <= 0 {
			errs = append(errs, errors.New("rate-limit register window and max must be positive"))
		}
	}
	return errors.Join(errs...)
}
