package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rvellem/namewrap/node"
)

// ErrRedisUnavailable is returned when the backing Redis cannot serve a call.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned when a node has no wrapped record.
var ErrNotFound = errors.New("wrapped record not found")

// ErrOwnerMismatch is returned when a guarded owner swap loses the compare.
var ErrOwnerMismatch = errors.New("record owner mismatch")

// ErrCorruptRecord is returned when a stored blob cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt wrapped record")

const (
	swapStatusNotFound int64 = 0
	swapStatusMismatch int64 = 1
	swapStatusSwapped  int64 = 2
	swapStatusCorrupt  int64 = 3
)

const putRecordScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SET", KEYS[1], ARGV[1])
if existed == 0 then
  redis.call("INCR", KEYS[2])
end
return existed
`

var putRecordLua = redis.NewScript(putRecordScript)

const deleteRecordScript = `
local existed = redis.call("EXISTS", KEYS[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
  local count = tonumber(redis.call("GET", KEYS[2]) or "0")
  if count > 1 then
    redis.call("DECR", KEYS[2])
  elseif count == 1 then
    redis.call("DEL", KEYS[2])
  end
end
return existed
`

var deleteRecordLua = redis.NewScript(deleteRecordScript)

const swapOwnerScript = `
local key = KEYS[1]
local from = ARGV[1]
local to = ARGV[2]

local data = redis.call("GET", key)
if not data then
  return {0}
end

local version = string.byte(data, 1)
if not version or version ~= 1 then
  return {3}
end

local owner_len = string.byte(data, 2)
if not owner_len or #data < 2 + owner_len then
  return {3}
end

local owner = string.sub(data, 3, 2 + owner_len)
if owner ~= from then
  return {1}
end

local rest = string.sub(data, 3 + owner_len)
local updated = string.char(version) .. string.char(#to) .. to .. rest
redis.call("SET", key, updated)
return {2, updated}
`

var swapOwnerLua = redis.NewScript(swapOwnerScript)

// Store is a Redis-backed wrapped-record store. Record keys carry no TTL:
// expiry is domain state the engine evaluates, an expired record must still
// be readable to be classified as such.
//
//	Docs: docs/record.md
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a record [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

func (s *Store) key(id node.ID) string {
	return s.prefix + ":" + id.String()
}

func (s *Store) countKey() string {
	return "nwt:" + s.prefix
}

// Get retrieves the wrapped record for a node.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, id node.ID) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return rec, nil
}

// Put writes the wrapped record for a node and maintains the wrapped-count
// key for first-time writes.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Put(ctx context.Context, id node.ID, rec *Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	if err := putRecordLua.Run(ctx, s.redis, []string{s.key(id), s.countKey()}, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// PutMany writes a batch of records in one transaction. Used by the batch
// transfer apply phase; every target record must already exist, so the
// wrapped count is untouched.
func (s *Store) PutMany(ctx context.Context, ids []node.ID, recs []*Record) error {
	if len(ids) != len(recs) {
		return errors.New("ids and records length mismatch")
	}
	if len(ids) == 0 {
		return nil
	}

	encoded := make([][]byte, len(recs))
	for i, rec := range recs {
		data, err := Encode(rec)
		if err != nil {
			return err
		}
		encoded[i] = data
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			pipe.Set(ctx, s.key(id), encoded[i], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes a node's wrapped record and decrements the wrapped count.
// Deleting an absent record is a no-op.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Delete(ctx context.Context, id node.ID) error {
	if err := deleteRecordLua.Run(ctx, s.redis, []string{s.key(id), s.countKey()}).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SwapOwner atomically replaces the record owner after comparing the stored
// owner against from. The compare-and-swap runs inside Redis so concurrent
// writers cannot interleave between read and write.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-swap).
func (s *Store) SwapOwner(ctx context.Context, id node.ID, from, to string) (*Record, error) {
	if len(to) > maxOwnerLength {
		return nil, errors.New("owner too long")
	}

	result, err := swapOwnerLua.Run(ctx, s.redis, []string{s.key(id)}, from, to).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("%w: invalid swap script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid swap script status", ErrRedisUnavailable)
	}

	switch code {
	case swapStatusNotFound:
		return nil, ErrNotFound
	case swapStatusMismatch:
		return nil, ErrOwnerMismatch
	case swapStatusCorrupt:
		return nil, ErrCorruptRecord
	case swapStatusSwapped:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: missing updated record payload", ErrRedisUnavailable)
		}
		var blob []byte
		switch v := parts[1].(type) {
		case string:
			blob = []byte(v)
		case []byte:
			blob = v
		default:
			return nil, fmt.Errorf("%w: invalid updated record payload", ErrRedisUnavailable)
		}
		rec, decErr := Decode(blob)
		if decErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, decErr)
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: unknown swap script status", ErrRedisUnavailable)
	}
}

// Count returns the tracked wrapped-record counter.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.redis.Get(ctx, s.countKey()).Int64()
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

// EstimateWrapped scans record keys and counts matches.
// This is an admin-only O(n) operation and must not be used in request hot paths.
func (s *Store) EstimateWrapped(ctx context.Context) (int, error) {
	pattern := s.prefix + ":*"
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return total, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
