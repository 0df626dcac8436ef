package stores

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

var (
	ErrControllerRedisUnavailable = errors.New("controller redis unavailable")
)

// ControllerStore persists the registration controller allowlist as a Redis
// set. Membership gates the register-and-wrap path; the set is small and
// admin-managed, so full enumeration is acceptable.
type ControllerStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewControllerStore creates a controller allowlist store.
func NewControllerStore(redisClient redis.UniversalClient, prefix string) *ControllerStore {
	return &ControllerStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *ControllerStore) key() string {
	return "nwctl:" + s.prefix
}

// Set adds or removes an identity from the allowlist. Both directions are
// idempotent.
func (s *ControllerStore) Set(ctx context.Context, identity string, enabled bool) error {
	var err error
	if enabled {
		err = s.redis.SAdd(ctx, s.key(), identity).Err()
	} else {
		err = s.redis.SRem(ctx, s.key(), identity).Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrControllerRedisUnavailable, err)
	}
	return nil
}

// IsController reports allowlist membership.
func (s *ControllerStore) IsController(ctx context.Context, identity string) (bool, error) {
	ok, err := s.redis.SIsMember(ctx, s.key(), identity).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrControllerRedisUnavailable, err)
	}
	return ok, nil
}

// List returns the allowlist members in stable order.
func (s *ControllerStore) List(ctx context.Context) ([]string, error) {
	members, err := s.redis.SMembers(ctx, s.key()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrControllerRedisUnavailable, err)
	}
	sort.Strings(members)
	return members, nil
}
