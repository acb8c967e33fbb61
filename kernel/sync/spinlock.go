// Package sync provides the synchronization primitives that can be used before
// the Go scheduler is running: a busy-waiting spinlock and a one-shot
// initialization cell built on top of it.
package sync

import "sync/atomic"

const (
	// spinAttemptsBeforeYield is the number of failed acquisition attempts
	// after which Acquire invokes yieldFn.
	spinAttemptsBeforeYield = 64
)

var (
	// yieldFn is invoked by a spinning Acquire. It stays nil until the
	// kernel can switch contexts.
	yieldFn func()
)

// Spinlock implements a lock where each core trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the caller. Any attempt to
// re-acquire a lock already held by the caller will cause a deadlock.
func (l *Spinlock) Acquire() {
	for {
		for attempt := 0; attempt < spinAttemptsBeforeYield; attempt++ {
			if atomic.CompareAndSwapUint32(&l.state, 0, 1) {
				return
			}
		}

		if yieldFn != nil {
			yieldFn()
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other cores to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
