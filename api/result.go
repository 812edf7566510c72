// Package api
// Author: momentics@gmail.com
//
// Result carries a worker-pool call's outcome across the channel
// sched.Scheduler.SubmitResult hands back; Cancelable is the shape of a
// pending timer scheduled through timer.Manager.AsScheduler, implemented by
// timer.cancelHandle.

package api

// Result wraps the value or error produced by a task run on a worker pool.
type Result[T any] struct {
    Value T
    Err   error
}

// Cancelable is a pending timer or event registration that can be aborted
// before it fires.
type Cancelable interface {
    // Cancel aborts the operation if it has not already fired. Calling
    // Cancel more than once is safe; only the first call has effect.
    Cancel() error
    // Done is closed once Cancel has been called. timer.cancelHandle does
    // not close it when the timer fires.
    Done() <-chan struct{}
    // Err reports an error for the operation; timer.cancelHandle always
    // returns nil, whether the timer fired or was canceled.
    Err() error
}
