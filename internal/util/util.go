// Package util holds small path and log-redaction helpers shared by the server.
package util

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/estatehub/backoffice/internal/security"
)

// WritablePath returns the cleaned WRITABLE_PATH environment variable when it is set.
func WritablePath() string {
	for _, key := range []string{"WRITABLE_PATH", "writable_path"} {
		if value, ok := os.LookupEnv(key); ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return filepath.Clean(trimmed)
			}
		}
	}
	return ""
}

// ResolvePath anchors a relative path under WritablePath when one is configured.
// Absolute paths and an unset WRITABLE_PATH leave p cleaned but otherwise as is.
func ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if base := WritablePath(); base != "" {
		return filepath.Join(base, p)
	}
	return filepath.Clean(p)
}

// sensitiveQueryKeys are substrings that mark a query parameter as secret.
var sensitiveQueryKeys = []string{"token", "secret", "password"}

// MaskSensitiveQuery masks sensitive query parameters, e.g. refreshToken, within
// the raw query string. Parameter order and untouched pairs are preserved.
func MaskSensitiveQuery(raw string) string {
	if raw == "" {
		return ""
	}
	pairs := strings.Split(raw, "&")
	masked := false
	for i, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		if !shouldMaskQueryParam(unescapeOr(key)) {
			continue
		}
		pairs[i] = key + "=" + url.QueryEscape(security.MaskToken(strings.TrimSpace(unescapeOr(value))))
		masked = true
	}
	if !masked {
		return raw
	}
	return strings.Join(pairs, "&")
}

func unescapeOr(s string) string {
	if decoded, errUnescape := url.QueryUnescape(s); errUnescape == nil {
		return decoded
	}
	return s
}

func shouldMaskQueryParam(key string) bool {
	key = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(key)), "[]")
	if key == "" {
		return false
	}
	for _, marker := range sensitiveQueryKeys {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
