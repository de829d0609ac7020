package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestMemoryStoreFixedWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(3, time.Hour)
	s.now = clock.now

	for i := 0; i < 3; i++ {
		res := s.Allow("ip:10.0.0.1")
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := s.Allow("ip:10.0.0.1")
	assert.False(t, res.Allowed)
	assert.Equal(t, clock.t.Add(time.Hour), res.ResetAt)

	assert.True(t, s.Allow("ip:10.0.0.2").Allowed, "other clients have their own window")

	clock.t = clock.t.Add(time.Hour)
	assert.True(t, s.Allow("ip:10.0.0.1").Allowed, "window resets after the period")
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := NewMemoryStore(10, time.Minute)
	s.now = clock.now

	s.Allow("a")
	s.Allow("b")
	assert.Equal(t, 2, s.Len())

	clock.t = clock.t.Add(2 * time.Minute)
	s.Sweep()
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore(50, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Allow("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}
