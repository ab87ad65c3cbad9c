package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process Store. Reads share a read lock and never block each other.
type Memory struct {
	mu     sync.RWMutex
	values map[string]memEntry
	sets   map[string]map[string]struct{}
	opts   options
	now    func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory{
		values: make(map[string]memEntry),
		sets:   make(map[string]map[string]struct{}),
		opts:   o,
		now:    time.Now,
	}
}

func (m *Memory) key(k string) string { return m.opts.prefix + k }

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	e, ok := m.values[m.key(key)]
	m.mu.RUnlock()

	if !ok || e.expired(m.now()) {
		return nil, ErrNotFound
	}
	return slices.Clone(e.value), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := checkCtx(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.set(key, value, ttl)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := checkCtx(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.values[m.key(key)]
	if !ok || e.expired(m.now()) {
		return ErrNotFound
	}
	m.set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.del(keys...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) SAdd(ctx context.Context, set string, members ...string) error {
	if set == "" {
		return ErrEmptyKey
	}
	if err := checkCtx(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.sadd(set, members...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) SRem(ctx context.Context, set string, members ...string) error {
	if set == "" {
		return ErrEmptyKey
	}
	if err := checkCtx(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.srem(set, members...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) SMembers(ctx context.Context, set string) ([]string, error) {
	if set == "" {
		return nil, ErrEmptyKey
	}
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.sets[m.key(set)]
	out := make([]string, 0, len(s))
	for member := range s {
		out = append(out, member)
	}
	slices.Sort(out)
	return out, nil
}

func (m *Memory) SIsMember(ctx context.Context, set, member string) (bool, error) {
	if set == "" {
		return false, ErrEmptyKey
	}
	if err := checkCtx(ctx); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sets[m.key(set)][member]
	return ok, nil
}

// Batch collects the writes first and applies them under a single lock.
func (m *Memory) Batch(ctx context.Context, fn func(Writer)) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	b := &memBatch{}
	fn(b)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range b.ops {
		op(m)
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return checkCtx(ctx)
}

// Must be called with lock held.
func (m *Memory) set(key string, value []byte, ttl time.Duration) {
	e := memEntry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.values[m.key(key)] = e
}

// Must be called with lock held.
func (m *Memory) del(keys ...string) {
	for _, k := range keys {
		delete(m.values, m.key(k))
		delete(m.sets, m.key(k))
	}
}

// Must be called with lock held.
func (m *Memory) sadd(set string, members ...string) {
	s, ok := m.sets[m.key(set)]
	if !ok {
		s = make(map[string]struct{}, len(members))
		m.sets[m.key(set)] = s
	}
	for _, member := range members {
		s[member] = struct{}{}
	}
}

// Must be called with lock held.
func (m *Memory) srem(set string, members ...string) {
	s, ok := m.sets[m.key(set)]
	if !ok {
		return
	}
	for _, member := range members {
		delete(s, member)
	}
	if len(s) == 0 {
		delete(m.sets, m.key(set))
	}
}

type memBatch struct {
	ops []func(*Memory)
}

func (b *memBatch) Set(key string, value []byte, ttl time.Duration) {
	value = slices.Clone(value)
	b.ops = append(b.ops, func(m *Memory) { m.set(key, value, ttl) })
}

func (b *memBatch) Delete(keys ...string) {
	b.ops = append(b.ops, func(m *Memory) { m.del(keys...) })
}

func (b *memBatch) SAdd(set string, members ...string) {
	b.ops = append(b.ops, func(m *Memory) { m.sadd(set, members...) })
}

func (b *memBatch) SRem(set string, members ...string) {
	b.ops = append(b.ops, func(m *Memory) { m.srem(set, members...) })
}
