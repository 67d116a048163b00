package publishing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/engage/internal/domain"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	limiter := NewRateLimiter(setupRedis(t))
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		allowed, _, err := limiter.Allow(context.Background(), domain.PlatformInstagram, now)
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("call %d denied under the limit", i)
		}
	}
}

func TestRateLimiter_DeniesOverMinuteLimit(t *testing.T) {
	limiter := NewRateLimiter(setupRedis(t))
	now := time.Date(2026, 3, 2, 12, 0, 30, 0, time.UTC)

	// YouTube allows 2 per minute.
	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(context.Background(), domain.PlatformYouTube, now)
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("call %d denied under the limit", i)
		}
	}

	allowed, wait, err := limiter.Allow(context.Background(), domain.PlatformYouTube, now)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Fatal("third call within the minute should be denied")
	}
	if wait <= 0 || wait > time.Minute {
		t.Errorf("wait = %v, want a sub-minute hold-off", wait)
	}
}

func TestRateLimiter_SeparateWindowsPerPlatform(t *testing.T) {
	limiter := NewRateLimiter(setupRedis(t))
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		limiter.Allow(context.Background(), domain.PlatformYouTube, now)
	}
	allowed, _, err := limiter.Allow(context.Background(), domain.PlatformInstagram, now)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !allowed {
		t.Fatal("instagram should not share youtube's counters")
	}
}

func TestRateLimiter_UnknownPlatformUnlimited(t *testing.T) {
	limiter := NewRateLimiter(setupRedis(t))
	allowed, _, err := limiter.Allow(context.Background(), domain.Platform("carrier-pigeon"), time.Now())
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !allowed {
		t.Fatal("platforms without configured rates pass through")
	}
}

func TestOnceGuard_ClaimReleaseClaim(t *testing.T) {
	guard := NewOnceGuard(setupRedis(t))
	ctx := context.Background()

	claimed, err := guard.Claim(ctx, "sched-1", domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !claimed {
		t.Fatal("first claim should succeed")
	}

	claimed, err = guard.Claim(ctx, "sched-1", domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if claimed {
		t.Fatal("duplicate claim should be denied")
	}

	// A different platform for the same schedule is its own slot.
	claimed, err = guard.Claim(ctx, "sched-1", domain.PlatformTikTok)
	if err != nil {
		t.Fatalf("Claim other platform: %v", err)
	}
	if !claimed {
		t.Fatal("other-platform claim should succeed")
	}

	guard.Release(ctx, "sched-1", domain.PlatformInstagram)
	claimed, err = guard.Claim(ctx, "sched-1", domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Claim after release: %v", err)
	}
	if !claimed {
		t.Fatal("claim after release should succeed")
	}
}
