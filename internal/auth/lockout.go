package auth

import (
	"math"
	"time"

	"github.com/estatehub/backoffice/internal/store"
)

// Lockout defaults.
const (
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 30 * time.Minute
)

// LockoutPolicy holds the lockout thresholds. The transition itself is
// applied atomically by the admin store.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// NewLockoutPolicy returns a policy, substituting defaults for non-positive values.
func NewLockoutPolicy(maxAttempts int, lockDuration time.Duration) LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockDuration
	}
	return LockoutPolicy{MaxAttempts: maxAttempts, LockDuration: lockDuration}
}

// Rule returns the store rule for a failure observed at now. The expiry is
// truncated to microseconds so it survives a Postgres round trip unchanged.
func (p LockoutPolicy) Rule(now time.Time) store.LockoutRule {
	return store.LockoutRule{
		MaxAttempts: p.MaxAttempts,
		LockUntil:   now.Add(p.LockDuration).UTC().Truncate(time.Microsecond),
	}
}

// minutesUntil rounds the time remaining until t up to whole minutes.
func minutesUntil(t, now time.Time) int {
	remaining := t.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(float64(remaining.Milliseconds()) / 60000))
}
