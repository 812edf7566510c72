// File: ioruntime/ioruntime.go
// Author: momentics <momentics@gmail.com>
//
// IOManager: a Scheduler that also demultiplexes readiness on file
// descriptors. It embeds a Scheduler and a timer.Manager and overrides the
// Scheduler's idle body with a readiness-polling loop, grounded on the
// reactor package's epoll wrapper and enriched with the growable
// FdContext-per-descriptor array and eventfd wake-up from the pack's
// event-loop poller.

package ioruntime

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-fiber/api"
	"github.com/momentics/hioload-fiber/control"
	"github.com/momentics/hioload-fiber/fiber"
	"github.com/momentics/hioload-fiber/sched"
	"github.com/momentics/hioload-fiber/timer"
)

// Direction is a bitmask of readiness directions.
type Direction uint32

const (
	DirRead Direction = 1 << iota
	DirWrite
)

// readinessDeadlineCapMs bounds how long a single demultiplex wait blocks,
// so a just-registered earlier timer is never stuck behind a stale wait.
const readinessDeadlineCapMs = 5000

// EventContext holds the continuation registered for one direction of one
// descriptor. Exactly one of Fiber/Callback is populated.
type EventContext struct {
	Scheduler *sched.Scheduler
	Fiber     *fiber.Fiber
	Callback  func()
}

func (c *EventContext) clear() { *c = EventContext{} }

func (c *EventContext) fire() {
	if c.Fiber != nil {
		fb := c.Fiber
		c.clear()
		if fb.State() == fiber.StateReady {
			fb.Resume()
		}
		return
	}
	if c.Callback != nil {
		cb := c.Callback
		c.clear()
		cb()
	}
}

// FdContext is the per-descriptor registration state. Exactly one mutex
// guards both the armed mask and epoll registration, so arming/disarming is
// always serialized against the demultiplexer loop.
type FdContext struct {
	mu    sync.Mutex
	armed Direction
	read  EventContext
	write EventContext
}

// ErrAlreadyArmed is returned by AddEvent when the requested direction is
// already registered on this descriptor.
var ErrAlreadyArmed = api.NewError(api.ErrCodeAlreadyExists, "ioruntime: direction already armed")

// Manager is a Scheduler extended with epoll-backed I/O readiness
// demultiplexing and timer-driven wakeups.
type Manager struct {
	*sched.Scheduler
	*timer.Manager

	p poller

	mu     sync.RWMutex
	fdCtxs []*FdContext

	pending  atomic.Int32
	wakes    atomic.Int64

	// Config supplies "ioruntime.wait_cap_ms", overriding readinessDeadlineCapMs
	// when positive. Metrics, if set, receives pending-event count, wake
	// count and timer-queue depth once per idle-loop iteration.
	Config  *control.ConfigStore
	Metrics *control.MetricsRegistry
}

// SetControl wires a config store and metrics registry into the manager.
// Either may be nil to leave that concern at its stock default.
func (m *Manager) SetControl(cfg *control.ConfigStore, metrics *control.MetricsRegistry) {
	m.Config = cfg
	m.Metrics = metrics
}

// RegisterProbes exposes this manager's internal counters on dp under
// "<name>.pending_events", "<name>.wake_count" and "<name>.timer_pending".
func (m *Manager) RegisterProbes(dp *control.DebugProbes) {
	if dp == nil {
		return
	}
	name := m.Scheduler.Name()
	dp.RegisterProbe(name+".pending_events", func() any { return m.pending.Load() })
	dp.RegisterProbe(name+".wake_count", func() any { return m.wakes.Load() })
	dp.RegisterProbe(name+".timer_pending", func() any { return m.Manager.HasTimer() })
	m.Scheduler.RegisterProbes(dp)
}

func (m *Manager) waitCapMs() int64 {
	if m.Config != nil {
		if v, ok := m.Config.GetSnapshot()["ioruntime.wait_cap_ms"]; ok {
			if ms, ok := v.(int64); ok && ms > 0 {
				return ms
			}
		}
	}
	return readinessDeadlineCapMs
}

func (m *Manager) publishMetrics() {
	if m.Metrics == nil {
		return
	}
	name := m.Scheduler.Name()
	m.Metrics.Set(name+".pending_events", m.pending.Load())
	m.Metrics.Set(name+".wake_count", m.wakes.Load())
	m.Metrics.Set(name+".timer_pending", m.Manager.HasTimer())
}

// New constructs an IOManager with n worker threads. useCaller mirrors
// sched.New's semantics: the constructing goroutine contributes a worker
// slot, drained synchronously when Stop is called.
func New(name string, n int, useCaller bool) (*Manager, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}

	m := &Manager{p: p}
	m.Manager = timer.New(func() { m.tickle(m.Scheduler) })
	m.Scheduler = sched.New(name, n, useCaller)
	m.Scheduler.IdleBody = m.idleBody
	m.Scheduler.Tickle = m.tickle
	m.Scheduler.StoppingExtra = m.stoppingExtra
	return m, nil
}

func (m *Manager) tickle(s *sched.Scheduler) {
	if s.IdleCount() > 0 {
		m.p.wake()
		m.wakes.Add(1)
	}
}

func (m *Manager) stoppingExtra() bool {
	return !m.Manager.HasTimer() && m.pending.Load() == 0
}

// idleBody is the per-worker readiness loop installed as the Scheduler's
// idle fiber body (§4.4): wait for readiness or a timer deadline, drain
// expired timers onto the scheduler, dispatch ready descriptors, then yield
// so the worker loop can pick up newly scheduled work.
func (m *Manager) idleBody(s *sched.Scheduler, workerIdx int) {
	for !m.Scheduler.Stopping() {
		next := m.Manager.NextTimeout()
		if waitCap := m.waitCapMs(); next > waitCap {
			next = waitCap
		}

		events, err := m.p.wait(next)
		if err != nil {
			log.Printf("ioruntime: epoll_wait: %v", err)
		}

		var cbs []timer.Callback
		cbs = m.Manager.DrainExpired(cbs)
		for _, cb := range cbs {
			cb := cb
			m.Scheduler.Schedule(cb, sched.ThreadHintAny)
		}

		for _, ev := range events {
			if ev.wake {
				continue
			}
			m.dispatchReady(ev)
		}
		m.p.release(events)

		m.publishMetrics()
		fiber.Yield()
	}
}

func (m *Manager) dispatchReady(ev readyEvent) {
	m.mu.RLock()
	var ctx *FdContext
	if ev.fd >= 0 && ev.fd < len(m.fdCtxs) {
		ctx = m.fdCtxs[ev.fd]
	}
	m.mu.RUnlock()
	if ctx == nil {
		return
	}

	ctx.mu.Lock()
	armed := ctx.armed
	var real Direction
	if ev.err || ev.hup {
		real = armed
	} else {
		if ev.read {
			real |= DirRead
		}
		if ev.write {
			real |= DirWrite
		}
		real &= armed
	}
	if real == 0 {
		ctx.mu.Unlock()
		return
	}

	remaining := armed &^ real
	if remaining != armed {
		if remaining == 0 {
			_ = m.p.unregister(ev.fd)
		} else {
			_ = m.p.modify(ev.fd, remaining)
		}
		ctx.armed = remaining
	}

	// Copy out and clear the continuations while still holding the lock,
	// so firing them after Unlock cannot race a concurrent AddEvent that
	// reuses this direction.
	var toFire []EventContext
	if real&DirRead != 0 {
		toFire = append(toFire, ctx.read)
		ctx.read.clear()
	}
	if real&DirWrite != 0 {
		toFire = append(toFire, ctx.write)
		ctx.write.clear()
	}
	ctx.mu.Unlock()

	for i := range toFire {
		m.pending.Add(-1)
		ec := toFire[i]
		target := ec.Scheduler
		ec.Scheduler = nil
		if target != nil {
			target.Schedule(func() { ec.fire() }, sched.ThreadHintAny)
		} else {
			ec.fire()
		}
	}
}

func (m *Manager) ctxFor(fd int, grow bool) *FdContext {
	m.mu.RLock()
	if fd < len(m.fdCtxs) && m.fdCtxs[fd] != nil {
		c := m.fdCtxs[fd]
		m.mu.RUnlock()
		return c
	}
	m.mu.RUnlock()
	if !grow {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if fd >= len(m.fdCtxs) {
		newLen := (fd*3)/2 + 1
		grown := make([]*FdContext, newLen)
		copy(grown, m.fdCtxs)
		m.fdCtxs = grown
	}
	if m.fdCtxs[fd] == nil {
		m.fdCtxs[fd] = &FdContext{}
	}
	return m.fdCtxs[fd]
}

// AddEvent arms dir on fd. If cb is nil, the currently-running fiber is
// resumed on readiness; otherwise cb is invoked on this manager.
func (m *Manager) AddEvent(fd int, dir Direction, cb func()) error {
	ctx := m.ctxFor(fd, true)
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.armed&dir != 0 {
		return ErrAlreadyArmed
	}
	newMask := ctx.armed | dir

	var err error
	if ctx.armed == 0 {
		err = m.p.register(fd, newMask)
	} else {
		err = m.p.modify(fd, newMask)
	}
	if err != nil {
		return err
	}
	ctx.armed = newMask

	ec := EventContext{Scheduler: m.Scheduler, Callback: cb}
	if cb == nil {
		ec.Fiber = fiber.Current()
	}
	if dir == DirRead {
		ctx.read = ec
	} else {
		ctx.write = ec
	}
	m.pending.Add(1)
	return nil
}

// DelEvent disarms dir on fd without firing its continuation.
func (m *Manager) DelEvent(fd int, dir Direction) {
	ctx := m.ctxFor(fd, false)
	if ctx == nil {
		return
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.armed&dir == 0 {
		return
	}
	remaining := ctx.armed &^ dir
	if remaining == 0 {
		_ = m.p.unregister(fd)
	} else {
		_ = m.p.modify(fd, remaining)
	}
	ctx.armed = remaining
	if dir == DirRead {
		ctx.read.clear()
	} else {
		ctx.write.clear()
	}
	m.pending.Add(-1)
}

// CancelEvent disarms dir on fd and fires its continuation exactly once, on
// the scheduler it was registered with.
func (m *Manager) CancelEvent(fd int, dir Direction) {
	ctx := m.ctxFor(fd, false)
	if ctx == nil {
		return
	}
	ctx.mu.Lock()
	if ctx.armed&dir == 0 {
		ctx.mu.Unlock()
		return
	}
	remaining := ctx.armed &^ dir
	if remaining == 0 {
		_ = m.p.unregister(fd)
	} else {
		_ = m.p.modify(fd, remaining)
	}
	ctx.armed = remaining
	var ec EventContext
	if dir == DirRead {
		ec, ctx.read = ctx.read, EventContext{}
	} else {
		ec, ctx.write = ctx.write, EventContext{}
	}
	ctx.mu.Unlock()

	m.pending.Add(-1)
	target := ec.Scheduler
	ec.Scheduler = nil
	if target != nil {
		target.Schedule(func() { ec.fire() }, sched.ThreadHintAny)
	} else {
		ec.fire()
	}
}

// CancelAll removes fd from the demultiplexer entirely, triggering both
// directions if armed.
func (m *Manager) CancelAll(fd int) {
	ctx := m.ctxFor(fd, false)
	if ctx == nil {
		return
	}
	ctx.mu.Lock()
	armed := ctx.armed
	ctx.armed = 0
	var read, write EventContext
	read, ctx.read = ctx.read, EventContext{}
	write, ctx.write = ctx.write, EventContext{}
	ctx.mu.Unlock()

	if armed != 0 {
		_ = m.p.unregister(fd)
	}
	if armed&DirRead != 0 {
		m.pending.Add(-1)
		if s := read.Scheduler; s != nil {
			s.Schedule(func() { read.fire() }, sched.ThreadHintAny)
		}
	}
	if armed&DirWrite != 0 {
		m.pending.Add(-1)
		if s := write.Scheduler; s != nil {
			s.Schedule(func() { write.fire() }, sched.ThreadHintAny)
		}
	}
}

// Close releases the underlying demultiplexer descriptor.
func (m *Manager) Close() error {
	return m.p.close()
}

var (
	_ api.Executor         = (*Manager)(nil)
	_ api.GracefulShutdown = (*Manager)(nil)
)
