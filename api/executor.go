// Package api
// Author: momentics
//
// Executor is the generic-task-dispatch face of sched.Scheduler and
// ioruntime.Manager, used by callers that only need to submit work and
// don't care about fiber affinity or IO readiness.

package api

// Executor abstracts submitting plain callables to a worker pool.
type Executor interface {
    // Submit enqueues task for execution on any worker.
    Submit(task func()) error

    // NumWorkers returns the pool's configured worker count.
    NumWorkers() int

    // Resize adjusts the concurrency at runtime. sched.Scheduler's pool is
    // fixed at construction and treats this as a no-op.
    Resize(newCount int)
}
