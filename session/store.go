package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis failure returned by the Store.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrInvalidTTL is returned when a write or renewal asks for less than MinTTL.
var ErrInvalidTTL = errors.New("session ttl below minimum")

// DefaultPrefix is the key prefix used when NewStore receives an empty one.
const DefaultPrefix = "sess"

// MinTTL is the smallest expiry the store accepts. EXPIRE with a zero or
// negative value deletes the key, which must never happen on a write path.
const MinTTL = time.Second

// Store keeps session hashes in Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store that namespaces keys under prefix.
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  rdb,
		prefix: prefix,
	}
}

// Key returns the Redis key holding sessionID.
func (s *Store) Key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// WriteFields sets every field and the absolute TTL in one MULTI/EXEC, so a
// session never exists without an expiry.
func (s *Store) WriteFields(ctx context.Context, sessionID string, fields map[string]string, ttl time.Duration) error {
	if ttl < MinTTL {
		return ErrInvalidTTL
	}
	if len(fields) == 0 {
		return errors.New("session: no fields to write")
	}

	key := s.Key(sessionID)
	values := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values...)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// ReadAllFields returns every field of the session hash. A missing key yields
// an empty map and a nil error.
func (s *Store) ReadAllFields(ctx context.Context, sessionID string) (map[string]string, error) {
	fields, err := s.redis.HGetAll(ctx, s.Key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RenewTTL resets the absolute expiry without touching the fields. Renewing
// an absent session is a no-op.
func (s *Store) RenewTTL(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl < MinTTL {
		return ErrInvalidTTL
	}
	if err := s.redis.Expire(ctx, s.Key(sessionID), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
