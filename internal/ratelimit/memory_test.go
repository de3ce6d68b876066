package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, rate float64, burst int) (*MemoryLimiter, *fakeClock) {
	t.Helper()
	m := NewMemoryLimiter(rate, burst)
	clock := &fakeClock{t: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
	m.now = clock.now
	t.Cleanup(func() { require.NoError(t, m.Close()) })
	return m, clock
}

func allowN(t *testing.T, m *MemoryLimiter, key string, n int) int {
	t.Helper()
	allowed := 0
	for range n {
		ok, err := m.Allow(context.Background(), key)
		require.NoError(t, err)
		if ok {
			allowed++
		}
	}
	return allowed
}

func TestMemoryLimiter_BurstThenDeny(t *testing.T) {
	m, _ := newTestLimiter(t, 10, 3)
	assert.Equal(t, 3, allowN(t, m, "k1", 3))
	assert.Equal(t, 0, allowN(t, m, "k1", 1))
}

func TestMemoryLimiter_Refill(t *testing.T) {
	m, clock := newTestLimiter(t, 2, 2)
	assert.Equal(t, 2, allowN(t, m, "k1", 3))

	clock.advance(500 * time.Millisecond)
	assert.Equal(t, 1, allowN(t, m, "k1", 2), "half a second at 2/s refills one token")
}

func TestMemoryLimiter_TokensCapAtBurst(t *testing.T) {
	m, clock := newTestLimiter(t, 1000, 3)
	allowN(t, m, "k1", 1)
	clock.advance(time.Hour)
	assert.Equal(t, 3, allowN(t, m, "k1", 5))
}

func TestMemoryLimiter_IndependentKeys(t *testing.T) {
	m, _ := newTestLimiter(t, 1, 1)
	assert.Equal(t, 1, allowN(t, m, "a", 2))
	assert.Equal(t, 1, allowN(t, m, "b", 2))
	assert.Equal(t, 2, m.Len())
}

func TestMemoryLimiter_ZeroBurstDenies(t *testing.T) {
	m, _ := newTestLimiter(t, 10, 0)
	assert.Equal(t, 0, allowN(t, m, "k1", 2))
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	m, _ := newTestLimiter(t, 0, 50)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := m.Allow(context.Background(), "shared")
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestMemoryLimiter_EvictStale(t *testing.T) {
	m, clock := newTestLimiter(t, 10, 5)
	allowN(t, m, "stale", 1)
	clock.advance(staleThreshold + time.Minute)
	allowN(t, m, "recent", 1)

	m.evictStale()

	m.mu.Lock()
	_, staleKept := m.buckets["stale"]
	_, recentKept := m.buckets["recent"]
	m.mu.Unlock()
	assert.False(t, staleKept)
	assert.True(t, recentKept)
}

func TestMemoryLimiter_CloseIdempotent(t *testing.T) {
	m := NewMemoryLimiter(10, 5)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestNoopLimiter(t *testing.T) {
	var l NoopLimiter
	ok, err := l.Allow(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Close())
}
