package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps one sorted set per key whose members are hit timestamps.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	rule   Rule
	now    func() time.Time
}

// NewRedisLimiter constructs a RedisLimiter. Keys are namespaced by prefix.
func NewRedisLimiter(client redis.UniversalClient, prefix string, rule Rule) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, rule: rule, now: time.Now}
}

// Allow records a hit and reports whether key is within the window budget.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	nowMs := now.UnixMilli()
	windowStart := nowMs - l.rule.Window.Milliseconds()
	redisKey := l.prefix + ":" + key

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart, 10))
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowMs), Member: uuid.NewString()})
		card = pipe.ZCard(ctx, redisKey)
		oldest = pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
		pipe.PExpire(ctx, redisKey, l.rule.Window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	first := now
	if entries := oldest.Val(); len(entries) > 0 {
		first = time.UnixMilli(int64(entries[0].Score))
	}
	return decide(l.rule, int(card.Val()), first), nil
}
