package driven

import (
	"context"
	"time"
)

// GenerationLock guards against two generation passes running concurrently
// for the same session. The in-process implementation only protects a single
// replica; cross-process double-generation is tolerable because session
// writes are read-modify-write against the latest persisted record. Swap in
// the Redis implementation for multi-replica deployments.
type GenerationLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if acquired, false if already held.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
