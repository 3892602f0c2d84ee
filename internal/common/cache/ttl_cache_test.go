package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
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

type box struct {
	items []string
}

func cloneBox(b *box) *box {
	out := &box{items: make([]string, len(b.items))}
	copy(out.items, b.items)
	return out
}

func newTestCache(ttl time.Duration, clock *fakeClock) *TTLCache[string, int] {
	return New[string, int](Config{TTL: ttl, Clock: clock.Now, Name: "test"}, nil)
}

func TestTTLCache_GetPut(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(time.Minute, clock)
	defer c.Close()

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Put("a", 2)
	v, ok = c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v, "last writer wins")
}

func TestTTLCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(time.Minute, clock)
	defer c.Close()

	c.Put("a", 1)

	clock.Advance(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok, "still valid just before expiry")

	clock.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "an entry is invalid exactly at its expiry")
	assert.Equal(t, 0, c.Len(), "expired entry dropped on lookup")
}

func TestTTLCache_PutRefreshesExpiry(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(time.Minute, clock)
	defer c.Close()

	c.Put("a", 1)
	clock.Advance(50 * time.Second)
	c.Put("a", 2)
	clock.Advance(50 * time.Second)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTLCache_Disabled(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		t.Run(ttl.String(), func(t *testing.T) {
			c := newTestCache(ttl, newFakeClock())
			defer c.Close()

			assert.False(t, c.Enabled())
			c.Put("a", 1)
			_, ok := c.Get("a")
			assert.False(t, ok)
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestTTLCache_Clear(t *testing.T) {
	c := newTestCache(time.Hour, newFakeClock())
	defer c.Close()

	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(time.Minute, clock)
	defer c.Close()

	c.Put("old", 1)
	clock.Advance(30 * time.Second)
	c.Put("new", 2)
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("new")
	assert.True(t, ok)
}

func TestTTLCache_Janitor(t *testing.T) {
	c := New[string, int](Config{TTL: 20 * time.Millisecond, CleanupInterval: 5 * time.Millisecond}, nil)
	defer c.Close()

	c.Put("a", 1)
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTTLCache_CloseIsIdempotent(t *testing.T) {
	c := New[string, int](Config{TTL: time.Minute, CleanupInterval: time.Millisecond}, nil)
	c.Close()
	c.Close()

	disabled := New[string, int](Config{TTL: 0, CleanupInterval: time.Millisecond}, nil)
	disabled.Close()
	disabled.Close()
}

func TestTTLCache_ClonesOnPutAndGet(t *testing.T) {
	c := New[string, *box](Config{TTL: time.Minute}, cloneBox)
	defer c.Close()

	original := &box{items: []string{"a"}}
	c.Put("k", original)
	original.items[0] = "mutated after put"

	first, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "a", first.items[0])

	first.items[0] = "mutated by caller"
	second, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "a", second.items[0])
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := New[string, int](Config{TTL: time.Minute, CleanupInterval: time.Millisecond}, nil)
	defer c.Close()

	var wg conc.WaitGroup
	for i := 0; i < 32; i++ {
		i := i
		wg.Go(func() {
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Put(key, i)
				if v, ok := c.Get(key); ok {
					assert.GreaterOrEqual(t, v, 0)
				}
				if j%50 == 0 {
					c.Clear()
				}
			}
		})
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 10)
}
