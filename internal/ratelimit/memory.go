package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a single-process sliding window limiter.
type MemoryLimiter struct {
	rule Rule
	now  func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter(rule Rule) *MemoryLimiter {
	return &MemoryLimiter{rule: rule, now: time.Now, hits: make(map[string][]time.Time)}
}

// Allow records a hit and reports whether key is within the window budget.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.hits[key], now.Add(-l.rule.Window))
	kept = append(kept, now)
	l.hits[key] = kept
	return decide(l.rule, len(kept), kept[0]), nil
}

// Cleanup drops keys with no hits inside the window.
func (l *MemoryLimiter) Cleanup() {
	cutoff := l.now().Add(-l.rule.Window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, hits := range l.hits {
		if kept := prune(hits, cutoff); len(kept) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = kept
		}
	}
}

// StartCleanup runs Cleanup once per window until ctx is done.
func (l *MemoryLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.rule.Window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(hits) && !hits[idx].After(cutoff) {
		idx++
	}
	return hits[idx:]
}
