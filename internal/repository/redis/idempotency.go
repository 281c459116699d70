package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemNS = "univista:v1:idem"

	// Key values distinguish an in-flight booking from a finished one.
	idemPending    = "PENDING"
	idemDonePrefix = "DONE:"
)

// KeyIdemBooking namespaces an Idempotency-Key header to one event, so the
// same client key on different events books each of them once.
func KeyIdemBooking(eventID, idemKey string) string {
	return fmt.Sprintf("%s:bookings:%s:%s", idemNS, eventID, idemKey)
}

// IdempotencyStore remembers booking results keyed by client-supplied
// idempotency keys, so retried requests replay the stored response instead
// of booking twice.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// AcquireLock marks the key as in-flight. Returns false when another
// request already holds it, finished or not.
func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, idemPending, lockTTL).Result()
}

// SaveResult stores the serialized response, replacing the pending marker.
func (s *IdempotencyStore) SaveResult(ctx context.Context, key, jsonPayload string) error {
	return s.rdb.Set(ctx, key, idemDonePrefix+jsonPayload, s.ttl).Err()
}

// GetResult returns the stored response for key. A pending marker or a
// missing key both report ok=false.
func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if payload, ok := strings.CutPrefix(v, idemDonePrefix); ok {
		return payload, true, nil
	}
	return "", false, nil
}

// IsLocked reports whether the key is held by an in-flight request.
func (s *IdempotencyStore) IsLocked(ctx context.Context, key string) (bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == idemPending, nil
}

// Release drops the key so the client may retry after a failed booking.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
