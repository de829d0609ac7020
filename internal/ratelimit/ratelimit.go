// Package ratelimit counts requests per client in fixed windows.
package ratelimit

import (
	"sync"
	"time"
)

// Store decides whether one more request of key fits into the current
// window.
type Store interface {
	Allow(key string) Result
}

// Result describes the window after a request was counted
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type window struct {
	count int
	start time.Time
}

// MemoryStore is a process-local fixed-window counter. Counters live until
// their window expires and are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

// NewMemoryStore allows limit requests per key in every period
func NewMemoryStore(limit int, period time.Duration) *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow counts a request of key
func (s *MemoryStore) Allow(key string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= s.period {
		w = &window{start: now}
		s.windows[key] = w
	}

	if w.count >= s.limit {
		return Result{Allowed: false, Limit: s.limit, Remaining: 0, ResetAt: w.start.Add(s.period)}
	}

	w.count++
	return Result{Allowed: true, Limit: s.limit, Remaining: s.limit - w.count, ResetAt: w.start.Add(s.period)}
}

// Sweep drops expired windows
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, w := range s.windows {
		if now.Sub(w.start) >= s.period {
			delete(s.windows, key)
		}
	}
}

// Reset clears every counter
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = make(map[string]*window)
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
