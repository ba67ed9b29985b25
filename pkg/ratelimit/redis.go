package ratelimit

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisKeySlot is the key holding the currently claimed request slot.
// Its PTTL is the time left until the next request may be sent.
const RedisKeySlot = "xivapi:pacer:slot"

// minPoll bounds how long a waiter sleeps when the slot key has no TTL yet.
const minPoll = 5 * time.Millisecond

// RedisPacer shares the request pacing across every fetcher process pointed at
// the same Redis instance, so several runs together still respect the ceiling.
type RedisPacer struct {
	redis    *redis.Client
	key      string
	interval time.Duration
	owner    string
	logger   zerolog.Logger
}

// NewRedisPacer creates a pacer backed by redisClient.
func NewRedisPacer(redisClient *redis.Client, interval time.Duration, logger zerolog.Logger) (*RedisPacer, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	interval = EffectiveInterval(interval)

	host, _ := os.Hostname()
	return &RedisPacer{
		redis:    redisClient,
		key:      RedisKeySlot,
		interval: interval,
		owner:    host + ":" + strconv.Itoa(os.Getpid()),
		logger:   logger,
	}, nil
}

// Interval returns the minimum spacing between requests.
func (p *RedisPacer) Interval() time.Duration {
	return p.interval
}

// Wait claims the shared slot, sleeping for the remainder of the current
// holder's interval while it is taken.
func (p *RedisPacer) Wait(ctx context.Context) error {
	start := time.Now()

	for {
		claimed, err := p.redis.SetNX(ctx, p.key, p.owner, p.interval).Result()
		if err != nil {
			return fmt.Errorf("claim request slot: %w", err)
		}
		if claimed {
			waited := time.Since(start)
			pacerWaitSeconds.WithLabelValues("redis").Observe(waited.Seconds())
			p.logger.Debug().Dur("waited", waited).Msg("Request slot acquired")
			return nil
		}

		remaining, err := p.redis.PTTL(ctx, p.key).Result()
		if err != nil {
			return fmt.Errorf("read request slot ttl: %w", err)
		}
		// -1 (no TTL) and -2 (already gone) both mean: poll again shortly.
		if remaining < minPoll {
			remaining = minPoll
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("pacer wait: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
