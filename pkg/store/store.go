package store

import (
	"context"
	"time"
)

// Store is the key-value contract used for roles, API keys and their relations.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored at key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Replace overwrites value only when key already exists, otherwise it
	// returns ErrNotFound. The check and the write are atomic.
	Replace(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// SAdd adds members to the set.
	SAdd(ctx context.Context, set string, members ...string) error

	// SRem removes members from the set.
	SRem(ctx context.Context, set string, members ...string) error

	// SMembers returns all members of the set. A missing set is empty.
	SMembers(ctx context.Context, set string) ([]string, error)

	// SIsMember reports whether member belongs to the set.
	SIsMember(ctx context.Context, set, member string) (bool, error)

	// Batch applies the queued writes atomically.
	Batch(ctx context.Context, fn func(Writer)) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
}

// Writer queues writes inside a Batch.
type Writer interface {
	Set(key string, value []byte, ttl time.Duration)
	Delete(keys ...string)
	SAdd(set string, members ...string)
	SRem(set string, members ...string)
}

// Healthcheck returns a readiness check for the store.
func Healthcheck(s Store) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.Ping(ctx)
	}
}
