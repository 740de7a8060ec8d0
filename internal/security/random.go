package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// refreshTokenBytes is the entropy of a refresh token (256 bits).
const refreshTokenBytes = 32

// GenerateRefreshToken creates a new opaque refresh token string.
func GenerateRefreshToken() (string, error) {
	secret := make([]byte, refreshTokenBytes)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(secret), nil
}

// MaskToken obscures a bearer value for logging, keeping only its edges.
func MaskToken(token string) string {
	if len(token) > 8 {
		return token[:4] + "..." + token[len(token)-4:]
	} else if len(token) > 4 {
		return token[:2] + "..." + token[len(token)-2:]
	} else if len(token) > 2 {
		return token[:1] + "..." + token[len(token)-1:]
	}
	return token
}
