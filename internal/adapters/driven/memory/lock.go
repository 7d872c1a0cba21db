package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/oppie/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.GenerationLock = (*Lock)(nil)

// Lock implements GenerationLock with an in-process map. It only protects
// a single replica; use the Redis lock when running more than one.
type Lock struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewLock creates an in-process generation lock.
func NewLock() *Lock {
	return &Lock{locks: make(map[string]time.Time)}
}

// Acquire attempts to acquire a named lock with the given TTL.
// Returns true if acquired, false if already held and not yet expired.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if expiry, held := l.locks[name]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.locks[name] = time.Now().Add(ttl)
	return true, nil
}

// Release releases a named lock.
// Safe to call even if the lock is not held or has expired.
func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, name)
	return nil
}

// Ping always succeeds for the in-process backend.
func (l *Lock) Ping(ctx context.Context) error {
	return nil
}
