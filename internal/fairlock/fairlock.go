// Package fairlock provides a mutex whose acquisition order prevents
// indefinite starvation of waiters, built on golang.org/x/sync/semaphore.
// A plain sync.Mutex makes no fairness guarantee between a high-frequency
// writer (the pty reader) and occasional readers (the renderer, the UI);
// semaphore.Weighted admits waiters in FIFO order, which is the property
// the grid lock needs.
package fairlock

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Mutex is a fair, single-owner lock implementing sync.Locker plus a
// non-blocking TryLock, matching the try_lock_unfair/lock_unfair pair the
// pty read cycle needs.
type Mutex struct {
	sem *semaphore.Weighted
}

// New returns a ready-to-use fair mutex.
func New() *Mutex {
	return &Mutex{sem: semaphore.NewWeighted(1)}
}

// Lock blocks until the mutex is acquired, waiting in FIFO order behind any
// earlier waiters.
func (m *Mutex) Lock() {
	// semaphore.Acquire only returns an error when its context is canceled;
	// context.Background() never is.
	_ = m.sem.Acquire(context.Background(), 1)
}

// Unlock releases the mutex.
func (m *Mutex) Unlock() {
	m.sem.Release(1)
}

// TryLock attempts to acquire the mutex without blocking. It returns false
// immediately if the mutex is held or if any waiter is already queued ahead
// of a new non-blocking attempt, which is exactly the fairness property the
// bounded-lock-holding read cycle relies on: a saturated fast path escalates
// to Lock rather than jumping the queue.
func (m *Mutex) TryLock() bool {
	return m.sem.TryAcquire(1)
}
