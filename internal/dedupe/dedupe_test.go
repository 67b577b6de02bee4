package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

func newTestGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewGuardFromClient(client, time.Hour, logger.New("test")), mr
}

func TestFirstSeenClaimsOnce(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	if !guard.FirstSeen(ctx, "evt-1") {
		t.Fatalf("first claim must succeed")
	}
	if guard.FirstSeen(ctx, "evt-1") {
		t.Fatalf("second claim for the same event must be rejected")
	}
	if !guard.FirstSeen(ctx, "evt-2") {
		t.Fatalf("a different event id must claim independently")
	}
}

func TestFirstSeenExpires(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	if !guard.FirstSeen(ctx, "evt-1") {
		t.Fatalf("first claim must succeed")
	}
	mr.FastForward(2 * time.Hour)
	if !guard.FirstSeen(ctx, "evt-1") {
		t.Fatalf("expired claim must be claimable again")
	}
}

func TestForgetReleasesClaim(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	guard.FirstSeen(ctx, "evt-1")
	guard.Forget(ctx, "evt-1")
	if !guard.FirstSeen(ctx, "evt-1") {
		t.Fatalf("forgotten claim must be claimable again")
	}
}

func TestFirstSeenFailsOpen(t *testing.T) {
	guard, mr := newTestGuard(t)
	mr.Close()

	if !guard.FirstSeen(context.Background(), "evt-1") {
		t.Fatalf("redis failure must fail open")
	}
}
