package publishing

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/logger"
)

// RateLimiter provides atomic per-platform publish rate limiting using a
// Redis Lua script. A GET then INCR pattern would race across dispatchers;
// the script checks and increments in one round trip.
type RateLimiter struct {
	redis  *redis.Client
	script *redis.Script
}

// PlatformRate caps publish calls per platform.
type PlatformRate struct {
	PerMinute int
	PerHour   int
}

// PlatformRates are API-tier publish caps per platform.
var PlatformRates = map[domain.Platform]PlatformRate{
	domain.PlatformTikTok:    {PerMinute: 6, PerHour: 100},
	domain.PlatformInstagram: {PerMinute: 10, PerHour: 200},
	domain.PlatformFacebook:  {PerMinute: 10, PerHour: 200},
	domain.PlatformYouTube:   {PerMinute: 2, PerHour: 50},
	domain.PlatformReddit:    {PerMinute: 6, PerHour: 60},
	domain.PlatformRSS:       {PerMinute: 30, PerHour: 600},
}

// publishLimitLuaScript atomically checks both windows and only increments
// when both pass.
const publishLimitLuaScript = `
local minuteKey = KEYS[1]
local hourKey = KEYS[2]
local minuteLimit = tonumber(ARGV[1])
local hourLimit = tonumber(ARGV[2])
local minuteTTL = tonumber(ARGV[3])
local hourTTL = tonumber(ARGV[4])

local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")
local hourCurrent = tonumber(redis.call("GET", hourKey) or "0")

if minCurrent + 1 > minuteLimit then
    return {0, 1}
end
if hourCurrent + 1 > hourLimit then
    return {0, 2}
end

local newMin = redis.call("INCR", minuteKey)
if newMin == 1 then
    redis.call("EXPIRE", minuteKey, minuteTTL)
end

local newHour = redis.call("INCR", hourKey)
if newHour == 1 then
    redis.call("EXPIRE", hourKey, hourTTL)
end

return {1, 0}
`

// NewRateLimiter creates a rate limiter with a pre-compiled Lua script.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		redis:  client,
		script: redis.NewScript(publishLimitLuaScript),
	}
}

// Allow atomically reserves one publish slot for the platform. When denied,
// wait is how long to hold off before the next attempt.
func (r *RateLimiter) Allow(ctx context.Context, platform domain.Platform, now time.Time) (allowed bool, wait time.Duration, err error) {
	rate, ok := PlatformRates[platform]
	if !ok {
		return true, 0, nil
	}

	minuteKey := fmt.Sprintf("publish:ratelimit:%s:min:%d", platform, now.Unix()/60)
	hourKey := fmt.Sprintf("publish:ratelimit:%s:hour:%d", platform, now.Unix()/3600)

	result, err := r.script.Run(ctx, r.redis,
		[]string{minuteKey, hourKey},
		rate.PerMinute,
		rate.PerHour,
		120,  // minute TTL
		7200, // hour TTL
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("publish rate limit check: %w", err)
	}

	if result[0].(int64) == 1 {
		return true, 0, nil
	}
	switch result[1].(int64) {
	case 1:
		wait = time.Duration(60-now.Second()) * time.Second
	case 2:
		wait = time.Duration(60-now.Minute()) * time.Minute
	}
	return false, wait, nil
}

// Usage returns current window counters for a platform, for the metrics
// endpoint.
func (r *RateLimiter) Usage(ctx context.Context, platform domain.Platform, now time.Time) (map[string]int64, error) {
	rate := PlatformRates[platform]
	minuteKey := fmt.Sprintf("publish:ratelimit:%s:min:%d", platform, now.Unix()/60)
	hourKey := fmt.Sprintf("publish:ratelimit:%s:hour:%d", platform, now.Unix()/3600)

	pipe := r.redis.Pipeline()
	minCmd := pipe.Get(ctx, minuteKey)
	hourCmd := pipe.Get(ctx, hourKey)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	minCurrent, _ := minCmd.Int64()
	hourCurrent, _ := hourCmd.Int64()
	return map[string]int64{
		"minute_current": minCurrent,
		"minute_limit":   int64(rate.PerMinute),
		"hour_current":   hourCurrent,
		"hour_limit":     int64(rate.PerHour),
	}, nil
}

// OnceGuard deduplicates publish attempts across dispatcher restarts using
// SET NX keys. A claimed key means some dispatcher already published this
// (schedule, platform) pair.
type OnceGuard struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewOnceGuard(client *redis.Client) *OnceGuard {
	return &OnceGuard{redis: client, ttl: 24 * time.Hour}
}

// Claim reserves the publish slot. False means a previous attempt already
// went out.
func (g *OnceGuard) Claim(ctx context.Context, scheduleID string, platform domain.Platform) (bool, error) {
	key := fmt.Sprintf("publish:once:%s:%s", scheduleID, platform)
	ok, err := g.redis.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim publish slot: %w", err)
	}
	return ok, nil
}

// Release frees the slot after a failed attempt so a retry can claim it.
func (g *OnceGuard) Release(ctx context.Context, scheduleID string, platform domain.Platform) {
	key := fmt.Sprintf("publish:once:%s:%s", scheduleID, platform)
	if err := g.redis.Del(ctx, key).Err(); err != nil {
		logger.Warn("release publish slot failed", "key", key, "error", err.Error())
	}
}
