package scheduler

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/store"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

const (
	defaultAuditRetentionInterval = time.Hour
	defaultAuditRetention         = 90 * 24 * time.Hour
)

// AuditRetention periodically removes audit rows older than the
// retention window. Plans and execution results carry no message
// bodies, so retention is purely a storage concern.
type AuditRetention struct {
	repo      *store.Repository
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
}

func NewAuditRetention(pool *pgxpool.Pool, log *logger.Logger, interval, retention time.Duration) *AuditRetention {
	if interval <= 0 {
		interval = defaultAuditRetentionInterval
	}
	if retention <= 0 {
		retention = defaultAuditRetention
	}

	return &AuditRetention{
		repo:      store.NewRepository(pool),
		log:       log,
		interval:  interval,
		retention: retention,
	}
}

func (c *AuditRetention) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *AuditRetention) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-c.retention)

	deleted, err := c.repo.DeleteAuditBefore(ctx, cutoff)
	if err != nil {
		c.log.Warn("audit retention cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("audit retention deleted old rows", "deleted", deleted)
	}
}
