package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func exerciseWindow(t *testing.T, limiter Limiter, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		decision, err := limiter.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("hit %d: %v", i, err)
		}
		if !decision.Allowed || decision.Remaining != 3-i || decision.Limit != 3 {
			t.Fatalf("hit %d: unexpected decision %+v", i, decision)
		}
	}

	blocked, err := limiter.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("blocked hit: %v", err)
	}
	if blocked.Allowed || blocked.Remaining != 0 {
		t.Fatalf("fourth hit must be rejected: %+v", blocked)
	}

	other, _ := limiter.Allow(ctx, "5.6.7.8")
	if !other.Allowed {
		t.Fatalf("keys must be limited independently")
	}

	advance(time.Minute + time.Second)
	again, err := limiter.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("after window: %v", err)
	}
	if !again.Allowed || again.Remaining != 2 {
		t.Fatalf("window must slide: %+v", again)
	}
}

func TestRedisLimiterSlidingWindow(t *testing.T) {
	_, client := newTestRedis(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewRedisLimiter(client, "rl:login", Rule{Max: 3, Window: time.Minute})
	limiter.now = func() time.Time { return now }

	exerciseWindow(t, limiter, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisLimiterReportsBackendFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRedisLimiter(client, "rl:login", Rule{Max: 3, Window: time.Minute})
	mr.Close()

	if _, errAllow := limiter.Allow(context.Background(), "1.2.3.4"); !errors.Is(errAllow, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", errAllow)
	}
}

func TestMemoryLimiterSlidingWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(Rule{Max: 3, Window: time.Minute})
	limiter.now = func() time.Time { return now }

	exerciseWindow(t, limiter, func(d time.Duration) { now = now.Add(d) })

	now = now.Add(2 * time.Minute)
	limiter.Cleanup()
	if len(limiter.hits) != 0 {
		t.Fatalf("cleanup must drop idle keys, %d left", len(limiter.hits))
	}
}

func TestDecisionResetAt(t *testing.T) {
	oldest := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	decision := decide(Rule{Max: 2, Window: time.Minute}, 3, oldest)
	if decision.Allowed || !decision.ResetAt.Equal(oldest.Add(time.Minute)) {
		t.Fatalf("unexpected decision %+v", decision)
	}
}
