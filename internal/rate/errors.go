package rate

import "errors"

var (
	// ErrRateLimited is returned when an identity exhausts its window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable is returned when the backing Redis cannot serve a call.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
