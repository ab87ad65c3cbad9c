package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a go-redis client.
type Redis struct {
	db   redis.UniversalClient
	opts options
}

// NewRedis wraps a connected client. Panics on nil client.
func NewRedis(client redis.UniversalClient, opts ...Option) *Redis {
	if client == nil {
		panic("store: redis client cannot be nil")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Redis{db: client, opts: o}
}

func (r *Redis) key(k string) string { return r.opts.prefix + k }

func (r *Redis) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opts.opTimeout)
}

// mapErr converts go-redis errors into store errors.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return ErrNotFound
	default:
		return errors.Join(ErrUnavailable, err)
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	val, err := r.db.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		return nil, mapErr(err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return mapErr(r.db.Set(ctx, r.key(key), value, ttl).Err())
}

// Replace uses SET XX.
func (r *Redis) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ok, err := r.db.SetXX(ctx, r.key(key), value, ttl).Result()
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return mapErr(r.db.Del(ctx, r.keys(keys)...).Err())
}

func (r *Redis) SAdd(ctx context.Context, set string, members ...string) error {
	if set == "" {
		return ErrEmptyKey
	}
	if len(members) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return mapErr(r.db.SAdd(ctx, r.key(set), toAny(members)...).Err())
}

func (r *Redis) SRem(ctx context.Context, set string, members ...string) error {
	if set == "" {
		return ErrEmptyKey
	}
	if len(members) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return mapErr(r.db.SRem(ctx, r.key(set), toAny(members)...).Err())
}

func (r *Redis) SMembers(ctx context.Context, set string) ([]string, error) {
	if set == "" {
		return nil, ErrEmptyKey
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	members, err := r.db.SMembers(ctx, r.key(set)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, mapErr(err)
	}
	return members, nil
}

func (r *Redis) SIsMember(ctx context.Context, set, member string) (bool, error) {
	if set == "" {
		return false, ErrEmptyKey
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ok, err := r.db.SIsMember(ctx, r.key(set), member).Result()
	if err != nil {
		return false, mapErr(err)
	}
	return ok, nil
}

// Batch runs the queued writes inside MULTI/EXEC.
func (r *Redis) Batch(ctx context.Context, fn func(Writer)) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(&redisBatch{ctx: ctx, pipe: pipe, r: r})
		return nil
	})
	return mapErr(err)
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return mapErr(r.db.Ping(ctx).Err())
}

func (r *Redis) keys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = r.key(k)
	}
	return out
}

type redisBatch struct {
	ctx  context.Context
	pipe redis.Pipeliner
	r    *Redis
}

func (b *redisBatch) Set(key string, value []byte, ttl time.Duration) {
	b.pipe.Set(b.ctx, b.r.key(key), value, ttl)
}

func (b *redisBatch) Delete(keys ...string) {
	if len(keys) > 0 {
		b.pipe.Del(b.ctx, b.r.keys(keys)...)
	}
}

func (b *redisBatch) SAdd(set string, members ...string) {
	if len(members) > 0 {
		b.pipe.SAdd(b.ctx, b.r.key(set), toAny(members)...)
	}
}

func (b *redisBatch) SRem(set string, members ...string) {
	if len(members) > 0 {
		b.pipe.SRem(b.ctx, b.r.key(set), toAny(members)...)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
