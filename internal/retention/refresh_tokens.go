// Package retention removes refresh tokens that can no longer be used.
package retention

import (
	"context"
	"time"

	"github.com/estatehub/backoffice/internal/metrics"
	log "github.com/sirupsen/logrus"
)

const (
	defaultInterval        = time.Hour
	defaultDeleteBatchSize = 1000
	maxDeleteBatchesPerRun = 500
)

// TokenPurger deletes expired refresh tokens in bounded batches.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// RefreshTokenCleaner periodically deletes expired refresh tokens.
type RefreshTokenCleaner struct {
	purger    TokenPurger
	interval  time.Duration
	batchSize int
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewRefreshTokenCleaner constructs a cleaner. A non-positive interval selects one hour.
func NewRefreshTokenCleaner(purger TokenPurger, interval time.Duration, m *metrics.Metrics) *RefreshTokenCleaner {
	if purger == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &RefreshTokenCleaner{
		purger:    purger,
		interval:  interval,
		batchSize: defaultDeleteBatchSize,
		metrics:   m,
		now:       time.Now,
	}
}

// Start launches the cleanup loop in a background goroutine.
func (c *RefreshTokenCleaner) Start(ctx context.Context) {
	if c == nil {
		return
	}
	go c.run(ctx)
	log.Infof("refresh token cleaner started (interval=%s)", c.interval)
}

func (c *RefreshTokenCleaner) run(ctx context.Context) {
	for {
		c.CleanupOnce(ctx)
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// CleanupOnce deletes every token expired at the current time and returns
// the number of rows removed.
func (c *RefreshTokenCleaner) CleanupOnce(ctx context.Context) int64 {
	if c == nil {
		return 0
	}
	cutoff := c.now().UTC()

	var deletedTotal int64
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		if ctx.Err() != nil {
			break
		}
		n, err := c.purger.DeleteExpired(ctx, cutoff, c.batchSize)
		if err != nil {
			log.WithError(err).Warn("refresh token cleaner: delete batch failed")
			break
		}
		deletedTotal += n
		if n < int64(c.batchSize) {
			break
		}
	}

	if deletedTotal > 0 {
		c.metrics.TokensPurged(deletedTotal)
		log.Infof("refresh token cleaner: deleted %d rows (cutoff=%s)", deletedTotal, cutoff.Format(time.RFC3339))
	}
	return deletedTotal
}
