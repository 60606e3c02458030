package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/shared"
)

// KeyedMutex provides one mutex per key so contention stays scoped to a
// single user: concurrent callers for the same key serialize, unrelated keys
// never block each other. Acquisition is bounded; a caller that cannot enter
// the critical section within the timeout gets shared.ErrBusy instead of
// blocking indefinitely.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*mutexEntry
	timeout time.Duration
}

type mutexEntry struct {
	sem  chan struct{}
	refs int
}

// DefaultTimeout bounds how long a caller waits to enter a critical section
const DefaultTimeout = 5 * time.Second

// NewKeyedMutex creates a keyed mutex with the given acquisition timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewKeyedMutex(timeout time.Duration) *KeyedMutex {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &KeyedMutex{
		entries: make(map[uuid.UUID]*mutexEntry),
		timeout: timeout,
	}
}

// Lock enters the critical section for key. On success it returns the unlock
// function, which must be called exactly once. It returns shared.ErrBusy when
// the timeout elapses first, or the context error when ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, key uuid.UUID) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &mutexEntry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	timer := time.NewTimer(k.timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return func() { k.unlock(key, e) }, nil
	case <-timer.C:
		k.drop(key, e)
		return nil, shared.ErrBusy
	case <-ctx.Done():
		k.drop(key, e)
		return nil, ctx.Err()
	}
}

// unlock releases the critical section and garbage-collects idle entries
func (k *KeyedMutex) unlock(key uuid.UUID, e *mutexEntry) {
	<-e.sem
	k.drop(key, e)
}

// drop decrements the entry's refcount and removes it once unused, so the
// map does not grow with one entry per user ever seen.
func (k *KeyedMutex) drop(key uuid.UUID, e *mutexEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}

// Len returns the number of keys with waiters or holders, for diagnostics
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
