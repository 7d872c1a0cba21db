package mocks

import (
	"context"
	"sync"
	"time"
)

// MockGenerationLock is a mock implementation of GenerationLock for testing.
// It simulates lock behavior with in-memory state and supports custom
// behavior injection.
type MockGenerationLock struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Custom behavior hooks (optional)
	AcquireFn func(name string, ttl time.Duration) (bool, error)
	ReleaseFn func(name string) error
	PingFn    func() error
}

// NewMockGenerationLock creates a new mock generation lock.
func NewMockGenerationLock() *MockGenerationLock {
	return &MockGenerationLock{
		locks: make(map[string]time.Time),
	}
}

// Acquire attempts to acquire a named lock.
// If AcquireFn is set, it delegates to that function.
func (m *MockGenerationLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, exists := m.locks[name]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[name] = time.Now().Add(ttl)
	return true, nil
}

// Release releases a named lock.
// If ReleaseFn is set, it delegates to that function.
func (m *MockGenerationLock) Release(ctx context.Context, name string) error {
	if m.ReleaseFn != nil {
		return m.ReleaseFn(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, name)
	return nil
}

// Ping checks backend health.
// If PingFn is set, it delegates to that function.
func (m *MockGenerationLock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// IsHeld checks if a lock is currently held (for test assertions).
func (m *MockGenerationLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks[name]
	return exists && time.Now().Before(expiry)
}

// SetHeld forces a lock to be held (for test setup).
func (m *MockGenerationLock) SetHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[name] = time.Now().Add(ttl)
}
