package csync

import (
	"iter"
	"sync"
)

// Map is a generic thread-safe map.
type Map[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewMap creates a new thread-safe map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Get gets the value for the specified key from the map.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.m[key]
	return v, ok
}

// Set sets the value for the specified key in the map.
func (m *Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
}

// Del deletes the specified key from the map.
func (m *Map[K, V]) Del(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
}

// Len returns the number of items in the map.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.m)
}

// Clear removes every entry from the map.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.m)
}

// GetOrSet returns the existing value for key if present, otherwise computes
// it with fn, stores it, and returns it. fn runs outside the lock is not
// guaranteed; callers must keep fn cheap and free of map re-entrancy.
func (m *Map[K, V]) GetOrSet(key K, fn func() V) V {
	m.mu.RLock()
	if v, ok := m.m[key]; ok {
		m.mu.RUnlock()
		return v
	}
	m.mu.RUnlock()

	v := fn()

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.m[key]; ok {
		return existing
	}
	m.m[key] = v
	return v
}

// Seq2 returns an iter.Seq2 that yields key-value pairs from the map. The
// snapshot is taken under the read lock so iteration never races a writer.
func (m *Map[K, V]) Seq2() iter.Seq2[K, V] {
	m.mu.RLock()
	snapshot := make(map[K]V, len(m.m))
	for k, v := range m.m {
		snapshot[k] = v
	}
	m.mu.RUnlock()

	return func(yield func(K, V) bool) {
		for k, v := range snapshot {
			if !yield(k, v) {
				return
			}
		}
	}
}
