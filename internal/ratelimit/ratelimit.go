// Package ratelimit implements per-key sliding window request limits backed
// by Redis or process memory.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps backend failures.
var ErrUnavailable = errors.New("ratelimit: backend unavailable")

// Rule is a maximum number of hits per sliding window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Decision is the outcome of a single hit.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter records a hit for key and decides whether it is within the rule.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(rule Rule, count int, oldest time.Time) Decision {
	remaining := rule.Max - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= rule.Max,
		Limit:     rule.Max,
		Remaining: remaining,
		ResetAt:   oldest.Add(rule.Window),
	}
}
