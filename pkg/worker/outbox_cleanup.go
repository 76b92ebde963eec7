package worker

import (
	"context"
	"time"

	"github.com/glowclinic/booking-api/pkg/logger"
)

// ProcessedEventStore is the slice of the outbox repository the cleanup needs.
type ProcessedEventStore interface {
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

// OutboxCleanup deletes processed outbox rows older than the retention
// window. Pending and failed rows are never touched.
type OutboxCleanup struct {
	store     ProcessedEventStore
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
}

func NewOutboxCleanup(store ProcessedEventStore, retention, interval time.Duration, logger *logger.Logger) *OutboxCleanup {
	if retention <= 0 {
		panic("retention must be greater than 0")
	}
	if interval <= 0 {
		panic("interval must be greater than 0")
	}
	return &OutboxCleanup{
		store:     store,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

func (c *OutboxCleanup) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("starting outbox cleanup")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("shutting down outbox cleanup")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *OutboxCleanup) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-c.retention)

	deleted, err := c.store.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		c.logger.Error(err, "outbox cleanup failed")
		return
	}
	if deleted > 0 {
		c.logger.Info("outbox cleanup complete", "deleted", deleted)
	}
}
