package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type lookupFunc func(key string) (string, bool)

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []string
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, errParse := strconv.Atoi(strings.TrimSpace(v))
			if errParse != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, errParse))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.EqualFold(strings.TrimSpace(v), "true")
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			d, errParse := ParseDuration(v)
			if errParse != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, errParse))
				return
			}
			*dst = d
		}
	}
	millis := func(key string, dst *time.Duration) {
		var ms int
		integer(key, &ms)
		if ms > 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}

	if port, ok := lookup("PORT"); ok && strings.TrimSpace(port) != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(strings.TrimSpace(port), ":")
	}
	if origins, ok := lookup("CORS_ORIGINS"); ok && strings.TrimSpace(origins) != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}
	str("DATABASE_URL", &cfg.Database.DSN)
	str("REDIS_URL", &cfg.Redis.URL)
	str("JWT_ACCESS_SECRET", &cfg.JWT.Secret)
	duration("ACCESS_TOKEN_EXPIRES_IN", &cfg.JWT.AccessTTL)
	duration("REFRESH_TOKEN_EXPIRES_IN", &cfg.JWT.RefreshTTL)
	integer("BCRYPT_SALT_ROUNDS", &cfg.Auth.BcryptCost)
	integer("MAX_LOGIN_ATTEMPTS", &cfg.Auth.MaxLoginAttempts)
	millis("LOCK_TIME_MS", &cfg.Auth.LockDuration)
	boolean("ALLOW_REGISTRATION", &cfg.Auth.AllowRegistration)
	millis("RATE_LIMIT_WINDOW_MS", &cfg.RateLimit.LoginWindow)
	integer("RATE_LIMIT_MAX", &cfg.RateLimit.LoginMax)
	boolean("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	boolean("SEED_ADMIN", &cfg.Seed.Enabled)
	str("DEFAULT_ADMIN_EMAIL", &cfg.Seed.AdminEmail)
	str("DEFAULT_ADMIN_PASSWORD", &cfg.Seed.AdminPassword)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_FILE", &cfg.Log.File)
	str("UPLOAD_DIR", &cfg.Uploads.Dir)

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseDuration parses a Go duration, additionally accepting a whole number
// of days with a "d" suffix (e.g. "7d").
func ParseDuration(raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if days, ok := strings.CutSuffix(trimmed, "d"); ok {
		n, errParse := strconv.Atoi(days)
		if errParse != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, errParse := time.ParseDuration(trimmed)
	if errParse != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

// LoadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func LoadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.Trim(strings.TrimSpace(line[eq+1:]), `"'`)
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
