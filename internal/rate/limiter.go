package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableRegistrationThrottle bool
	EnableRenewThrottle        bool
	MaxRegistrations           int
	RegistrationWindow         time.Duration
	MaxRenewals                int
	RenewWindow                time.Duration
}

// Limiter enforces per-identity rate limits for registration and renewal
// operations using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func registrationKey(identity string) string {
	return "nwreg:" + identity
}

func renewKey(identity string) string {
	return "nwrnw:" + identity
}

// CheckRegistration counts a registration attempt for the identity and
// returns an error once the window budget is exhausted.
func (l *Limiter) CheckRegistration(ctx context.Context, identity string) error {
	if !l.config.EnableRegistrationThrottle {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, registrationKey(identity), l.config.RegistrationWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRegistrations) {
		return ErrRateLimited
	}

	return nil
}

// CheckRenew counts a renewal attempt for the identity and returns an error
// once the window budget is exhausted.
func (l *Limiter) CheckRenew(ctx context.Context, identity string) error {
	if !l.config.EnableRenewThrottle {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, renewKey(identity), l.config.RenewWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRenewals) {
		return ErrRateLimited
	}

	return nil
}

// RegistrationAttempts returns the current window counter for an identity.
// Missing keys return zero.
func (l *Limiter) RegistrationAttempts(ctx context.Context, identity string) (int, error) {
	count, err := l.redis.Get(ctx, registrationKey(identity)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
