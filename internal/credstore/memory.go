package credstore

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Memory is a process-local Store. The zero value is not usable; use NewMemory.
type Memory[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	clock   Clock
}

func NewMemory[T any](clock Clock) *Memory[T] {
	if clock == nil {
		clock = SystemClock
	}
	return &Memory[T]{entries: make(map[string]entry[T]), clock: clock}
}

func (m *Memory[T]) Put(_ context.Context, key string, v T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry[T]{value: v, expiresAt: m.clock.Now().Add(ttl)}
	return nil
}

func (m *Memory[T]) Get(_ context.Context, key string) (T, Lookup, error) {
	var zero T
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return zero, Absent, nil
	}
	if expired(m.clock.Now(), e.expiresAt) {
		delete(m.entries, key)
		return zero, Expired, nil
	}
	return e.value, Present, nil
}

func (m *Memory[T]) Take(_ context.Context, key string) (T, Lookup, error) {
	var zero T
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return zero, Absent, nil
	}
	delete(m.entries, key)
	if expired(m.clock.Now(), e.expiresAt) {
		return zero, Expired, nil
	}
	return e.value, Present, nil
}

func (m *Memory[T]) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory[T]) SweepExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if expired(now, e.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of entries, expired or not.
func (m *Memory[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
