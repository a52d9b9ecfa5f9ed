package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis is a fixed-window limiter backed by a shared Redis instance, for
// deployments running more than one API process. The window is fixed rather
// than sliding: the counter expires as a unit, which over-admits slightly at
// window boundaries but keeps the check to one round trip.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis builds a limiter on the provided client.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("ratelimit.NewRedis: client is required")
	}
	return &Redis{client: client, prefix: "ratelimit:"}
}

// Check increments the key's window counter and reports whether the attempt
// is allowed.
func (r *Redis) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	redisKey := r.prefix + key

	count64, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}

	// First attempt in the window owns the expiry; later attempts must not
	// push it out.
	if count64 == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	count := int(count64)
	if count > limit {
		ttl, err := r.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}
		return Result{Allowed: false, ResetIn: ttl}, nil
	}

	return Result{Allowed: true, Remaining: limit - count}, nil
}

// NewClient dials Redis and verifies connectivity.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return client, nil
}
