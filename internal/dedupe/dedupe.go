// Package dedupe provides the idempotency guard for inbound events.
// Concurrent or repeated deliveries of the same event id must collapse
// to a single pipeline run; Redis SETNX is the arbiter.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

const keyPrefix = "mw:event:"

// Guard marks event ids as seen with a TTL.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewGuard creates a guard from configuration.
func NewGuard(cfg config.DedupeConfig, log *logger.Logger) (*Guard, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	return NewGuardFromClient(redis.NewClient(opt), cfg.GetDedupeTTL(), log), nil
}

// NewGuardFromClient wraps an existing Redis client.
func NewGuardFromClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *Guard {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Guard{client: client, ttl: ttl, log: log}
}

// FirstSeen claims the event id. It returns true when this call is the
// first claim within the TTL window. On a Redis failure the guard fails
// open: processing a duplicate is recoverable downstream through the
// loop-prevention tag, dropping an event is not.
func (g *Guard) FirstSeen(ctx context.Context, eventID string) bool {
	ok, err := g.client.SetNX(ctx, keyPrefix+eventID, 1, g.ttl).Result()
	if err != nil {
		g.log.OutboundCall("redis", "setnx", 0, err)
		return true
	}
	return ok
}

// Forget releases a claimed event id so a failed enqueue can be retried.
func (g *Guard) Forget(ctx context.Context, eventID string) {
	if err := g.client.Del(ctx, keyPrefix+eventID).Err(); err != nil {
		g.log.OutboundCall("redis", "del", 0, err)
	}
}

// Close closes the underlying client.
func (g *Guard) Close() error {
	return g.client.Close()
}
