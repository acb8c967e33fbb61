package sync

import "sync/atomic"

// Once runs an initialization function exactly once, even when several cores
// race to perform it. Unlike the standard library version, a contended Once
// spins instead of parking the caller, so it works before the scheduler
// exists.
//
// A Once must not be copied after first use.
type Once struct {
	done uint32
	lock Spinlock
}

// Do calls fn if and only if Do is being called for the first time on this
// Once. Concurrent callers block until the first call to fn returns, so no
// caller can observe a partially initialized value. Calling Do on the same
// Once from within fn deadlocks.
func (o *Once) Do(fn func()) {
	if atomic.LoadUint32(&o.done) == 1 {
		return
	}

	o.lock.Acquire()
	if o.done == 0 {
		fn()
		atomic.StoreUint32(&o.done, 1)
	}
	o.lock.Release()
}

// Done reports whether the initialization function has completed.
func (o *Once) Done() bool {
	return atomic.LoadUint32(&o.done) == 1
}
