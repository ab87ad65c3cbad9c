package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(capacity int, ttl time.Duration) (*TTLCache[string, int], *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewTTLCache[string, int](capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestTTLCache_PutGet(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(3, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestTTLCache_Expiry(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(3, time.Second)
	c.Put("a", 1)

	clock.Advance(999 * time.Millisecond)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clock.Advance(time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry must expire exactly at ttl")
	assert.Equal(t, 0, c.Len(), "expired entry is pruned on read")
}

func TestTTLCache_PutRefreshesTTL(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(3, time.Second)
	c.Put("a", 1)
	clock.Advance(800 * time.Millisecond)
	c.Put("a", 2)
	clock.Advance(800 * time.Millisecond)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTLCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestTTLCache_RemoveAndClear(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(3, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestNewTTLCache_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewTTLCache[string, int](0, time.Second) })
	assert.Panics(t, func() { NewTTLCache[string, int](1, 0) })
}

func TestTTLCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewTTLCache[int, int](64, time.Minute)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 500 {
				c.Put(j%100, id)
				c.Get(j % 100)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
