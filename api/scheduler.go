// Package api
// Author: momentics
//
// Delay-based scheduling contract; timer.Manager.AsScheduler is the sole
// implementation, letting code that only needs "run this after N ns"
// depend on api.Scheduler instead of the timer package directly.

package api

// Scheduler abstracts delay-based callback scheduling.
type Scheduler interface {
    // Schedule arranges for fn to run after delayNanos have elapsed.
    Schedule(delayNanos int64, fn func()) (Cancelable, error)

    // Cancel aborts a pending Schedule call. Canceling a Cancelable not
    // produced by this Scheduler returns an error.
    Cancel(c Cancelable) error

    // Now returns the scheduler's monotonic clock reading in nanoseconds.
    Now() int64
}
