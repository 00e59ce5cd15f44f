package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning parameters.
type Config struct {
	Prefix      string
	MaxAttempts int
	Window      time.Duration
	PerIP       bool
}

// Limiter counts failed logins per email and per IP using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "login"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Check returns ErrRateLimited when either budget is already exhausted.
func (l *Limiter) Check(ctx context.Context, email, ip string) error {
	if err := l.checkCounter(ctx, l.emailKey(email)); err != nil {
		return err
	}

	if l.config.PerIP && ip != "" {
		if err := l.checkCounter(ctx, l.ipKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// RecordFailure counts a failed attempt. It returns ErrRateLimited when this
// attempt exhausted a budget.
func (l *Limiter) RecordFailure(ctx context.Context, email, ip string) error {
	count, err := l.incrementWithTTL(ctx, l.emailKey(email))
	if err != nil {
		return err
	}
	limited := count >= int64(l.config.MaxAttempts)

	if l.config.PerIP && ip != "" {
		count, err = l.incrementWithTTL(ctx, l.ipKey(ip))
		if err != nil {
			return err
		}
		limited = limited || count >= int64(l.config.MaxAttempts)
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the email counter after a successful login. The IP counter is
// left alone so one valid account cannot launder attempts against others.
func (l *Limiter) Reset(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, l.emailKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) emailKey(email string) string {
	return l.config.Prefix + ":e:" + email
}

func (l *Limiter) ipKey(ip string) string {
	return l.config.Prefix + ":ip:" + ip
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
