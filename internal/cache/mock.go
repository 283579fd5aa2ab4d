package cache

import (
	"context"
	"sync"
	"time"
)

// Mock is an in-memory Cache for tests. Entries honor their TTL against
// the wall clock; Fail flips every operation into degraded mode.
type Mock struct {
	mu      sync.Mutex
	entries map[string]mockEntry

	// Fail makes Get report Degraded and Set return ErrUnavailable.
	Fail bool
}

type mockEntry struct {
	value     string
	expiresAt time.Time
}

func NewMock() *Mock {
	return &Mock{entries: make(map[string]mockEntry)}
}

func (m *Mock) Get(_ context.Context, key string) GetResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return GetResult{Degraded: true}
	}
	e, ok := m.entries[key]
	if !ok || (!e.expiresAt.IsZero() && time.Now().After(e.expiresAt)) {
		delete(m.entries, key)
		return GetResult{}
	}
	return GetResult{Value: e.value, Hit: true}
}

func (m *Mock) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return ErrUnavailable
	}
	e := mockEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Evict drops a key, simulating expiry or a cold cache.
func (m *Mock) Evict(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Mock) Healthy(context.Context) bool { return !m.Fail }

func (m *Mock) Close() error { return nil }
