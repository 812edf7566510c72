// File: timer/adapter.go
// Author: momentics <momentics@gmail.com>
//
// Adapts Manager to the ambient api.Scheduler/api.Cancelable contracts for
// callers that want timer scheduling behind an interface rather than the
// concrete Manager/Handle types.

package timer

import (
	"time"

	"github.com/momentics/hioload-fiber/api"
)

// AsScheduler returns a view of m satisfying api.Scheduler. Cancellations
// are one-shot regardless of the underlying timer's recurring flag, matching
// api.Cancelable's single Cancel/Done/Err shape.
func (m *Manager) AsScheduler() api.Scheduler { return schedulerAdapter{m} }

type schedulerAdapter struct{ m *Manager }

func (s schedulerAdapter) Schedule(delayNanos int64, fn func()) (api.Cancelable, error) {
	h := s.m.AddTimer(delayNanos/int64(time.Millisecond), fn, false)
	return &cancelHandle{h: h, done: make(chan struct{})}, nil
}

func (s schedulerAdapter) Cancel(c api.Cancelable) error {
	ch, ok := c.(*cancelHandle)
	if !ok || ch.h.m != s.m {
		return api.NewError(api.ErrCodeInvalidArgument, "timer: Cancelable not produced by this Scheduler")
	}
	ch.Cancel()
	return nil
}

// clockBase anchors Now's readings so they come from the monotonic clock.
var clockBase = time.Now()

func (s schedulerAdapter) Now() int64 { return int64(time.Since(clockBase)) }

// cancelHandle adapts a Handle to api.Cancelable; Cancel is idempotent and
// closes done exactly once. done is closed only by Cancel, not when the
// timer fires, and Err always returns nil.
type cancelHandle struct {
	h       Handle
	done    chan struct{}
	closed  bool
	lastErr error
}

func (c *cancelHandle) Cancel() error {
	if !c.closed {
		c.h.Cancel()
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *cancelHandle) Done() <-chan struct{} { return c.done }

func (c *cancelHandle) Err() error { return c.lastErr }

var _ api.Scheduler = schedulerAdapter{}
var _ api.Cancelable = (*cancelHandle)(nil)
