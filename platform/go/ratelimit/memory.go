package ratelimit

import (
	"context"
	"sync"
	"time"
)

// maxTrackedKeys bounds the attempt map. When exceeded, expired entries are
// purged; eviction is approximate, which is acceptable for a single-process
// deployment (use the Redis limiter for anything multi-instance).
const maxTrackedKeys = 10000

// Memory is a sliding-window limiter holding attempt timestamps in process
// memory.
type Memory struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

// NewMemory builds the in-memory limiter.
func NewMemory() *Memory {
	return &Memory{
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Check records an attempt for key and reports whether it is allowed.
func (m *Memory) Check(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-window)

	live := m.attempts[key][:0]
	for _, t := range m.attempts[key] {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) >= limit {
		m.attempts[key] = live
		return Result{
			Allowed: false,
			ResetIn: live[0].Add(window).Sub(now),
		}, nil
	}

	live = append(live, now)
	m.attempts[key] = live

	if len(m.attempts) > maxTrackedKeys {
		m.purge(cutoff)
	}

	return Result{
		Allowed:   true,
		Remaining: limit - len(live),
	}, nil
}

// purge drops keys whose attempts have all expired relative to the given
// cutoff; if the map is still oversized afterwards it is reset wholesale.
func (m *Memory) purge(cutoff time.Time) {
	for key, times := range m.attempts {
		expired := true
		for _, t := range times {
			if t.After(cutoff) {
				expired = false
				break
			}
		}
		if expired {
			delete(m.attempts, key)
		}
	}

	if len(m.attempts) > maxTrackedKeys {
		m.attempts = make(map[string][]time.Time)
	}
}
