// Package cache provides the keyed result store and the single-flight
// coordinator that de-duplicates concurrent fetch work per key.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the external key-value abstraction. Retention (TTL, eviction) is
// the store's business; callers only get-or-set.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value under key for ttl (0 = store default).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Memory is an in-process Store with lazy per-entry expiry. Suitable for
// single-process runs and tests; multi-process deployments use Redis.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	value    []byte
	deadline time.Time
}

// NewMemory creates a memory store with the given default TTL
// (0 = entries never expire).
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     defaultTTL,
	}
}

// Get returns the live value for key, dropping it if expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.ttl
	}
	var deadline time.Time
	if ttl > 0 {
		deadline = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, deadline: deadline}
	m.mu.Unlock()
	return nil
}

// Len reports the number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
