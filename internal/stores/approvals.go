package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	ErrApprovalRedisUnavailable = errors.New("approval redis unavailable")
)

// ApprovalStore persists approved-for-all delegations: per rights-holder,
// the set of operators allowed to act with the holder's full standing.
type ApprovalStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewApprovalStore creates an approval store.
func NewApprovalStore(redisClient redis.UniversalClient, prefix string) *ApprovalStore {
	return &ApprovalStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *ApprovalStore) key(owner string) string {
	return "nwapv:" + s.prefix + ":" + owner
}

// Set grants or revokes an operator's blanket approval for owner.
func (s *ApprovalStore) Set(ctx context.Context, owner, operator string, approved bool) error {
	var err error
	if approved {
		err = s.redis.SAdd(ctx, s.key(owner), operator).Err()
	} else {
		err = s.redis.SRem(ctx, s.key(owner), operator).Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApprovalRedisUnavailable, err)
	}
	return nil
}

// IsApproved reports whether operator holds blanket approval from owner.
func (s *ApprovalStore) IsApproved(ctx context.Context, owner, operator string) (bool, error) {
	ok, err := s.redis.SIsMember(ctx, s.key(owner), operator).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrApprovalRedisUnavailable, err)
	}
	return ok, nil
}

// Operators lists the approved operators for owner in unspecified order.
func (s *ApprovalStore) Operators(ctx context.Context, owner string) ([]string, error) {
	members, err := s.redis.SMembers(ctx, s.key(owner)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrApprovalRedisUnavailable, err)
	}
	return members, nil
}
