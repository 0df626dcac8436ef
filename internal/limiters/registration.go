package limiters

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rvellem/namewrap/internal/rate"
)

var (
	ErrRegistrationRateLimited = errors.New("registration rate limited")
	ErrRenewRateLimited        = errors.New("renew rate limited")
)

type RegistrationConfig struct {
	EnableRegistrationThrottle bool
	EnableRenewThrottle        bool
	MaxRegistrations           int
	RegistrationWindow         time.Duration
	MaxRenewals                int
	RenewWindow                time.Duration
}

// RegistrationLimiter throttles the registration adapter: registrations per
// controller and renewals per caller. Nil-safe: methods on a nil receiver
// return nil.
type RegistrationLimiter struct {
	limiter *rate.Limiter
}

func NewRegistrationLimiter(redisClient redis.UniversalClient, cfg RegistrationConfig) *RegistrationLimiter {
	return &RegistrationLimiter{
		limiter: rate.New(redisClient, rate.Config{
			EnableRegistrationThrottle: cfg.EnableRegistrationThrottle,
			EnableRenewThrottle:        cfg.EnableRenewThrottle,
			MaxRegistrations:           cfg.MaxRegistrations,
			RegistrationWindow:         cfg.RegistrationWindow,
			MaxRenewals:                cfg.MaxRenewals,
			RenewWindow:                cfg.RenewWindow,
		}),
	}
}

func (l *RegistrationLimiter) EnforceRegister(ctx context.Context, controller string) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	if err := l.limiter.CheckRegistration(ctx, controller); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return ErrRegistrationRateLimited
		}
		return err
	}
	return nil
}

func (l *RegistrationLimiter) EnforceRenew(ctx context.Context, caller string) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	if err := l.limiter.CheckRenew(ctx, caller); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return ErrRenewRateLimited
		}
		return err
	}
	return nil
}
