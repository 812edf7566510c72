// File: sched/scheduler.go
// Author: momentics <momentics@gmail.com>
//
// Worker-pool scheduler: N OS threads (via the thread package) pop tasks off
// a mutex-guarded FIFO queue and run them as fibers. Extension points an
// embedding IOManager overrides are plain function-typed hooks — Go
// composition in place of the source's virtual dispatch — matching the
// control package's probe/reload-hook style used across this codebase.

package sched

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-fiber/api"
	"github.com/momentics/hioload-fiber/control"
	"github.com/momentics/hioload-fiber/fiber"
	"github.com/momentics/hioload-fiber/thread"
)

// maxIdleSpins bounds how many Gosched-and-retry iterations the stock idle
// body does before falling back to a timed sleep, gated on cpu.X86.HasSSE2.
const maxIdleSpins = 32

var canSpin = cpu.X86.HasSSE2

// ThreadHintAny means a task may run on any worker.
const ThreadHintAny = -1

// DefaultIdleSleep is how long the stock idle body waits between polls of
// the stopping predicate.
const DefaultIdleSleep = 5 * time.Millisecond

type taskItem struct {
	fb         *fiber.Fiber
	callable   func()
	threadHint int
}

// Scheduler runs tasks (plain callables or caller-owned fibers) across a
// fixed pool of worker threads.
type Scheduler struct {
	name      string
	n         int
	useCaller bool

	// mu guards shared and pinned: the shared queue holds unpinned tasks,
	// pinned holds one ring-buffer-backed queue per worker index that has
	// ever received a pinned task.
	mu     sync.Mutex
	shared *queue.Queue
	pinned map[int]*queue.Queue

	active atomic.Int32
	idle   atomic.Int32

	stopRequested atomic.Bool
	stopOnce      sync.Once
	stopCh        chan struct{}

	threads  []*thread.Thread
	callerFb *fiber.Fiber

	wg sync.WaitGroup

	// IdleBody is the per-thread idle fiber's entry, run with its owning
	// Scheduler and worker index. The default sleeps briefly then yields,
	// looping until Stopping(); IOManager installs a readiness-polling loop
	// instead.
	IdleBody func(s *Scheduler, workerIdx int)

	// Tickle is invoked whenever the queue transitions from empty to
	// non-empty, or a worker needs another worker to look at pinned work.
	// The default is a no-op: the stock idle body is self-polling, so there
	// is nothing external to wake. IOManager installs a wake-pipe write.
	Tickle func(s *Scheduler)

	// StoppingExtra ANDs into Stopping(); IOManager uses it to also require
	// no pending timers and no pending I/O events.
	StoppingExtra func() bool

	// Config supplies runtime tunables (currently "sched.idle_sleep_ms");
	// nil means the stock defaults apply. See SetControl.
	Config *control.ConfigStore

	// Metrics, if set, receives "<name>.active_workers", "<name>.idle_workers"
	// and "<name>.queue_depth" after every task completion. See SetControl.
	Metrics *control.MetricsRegistry
}

// SetControl wires a config store and metrics registry into the scheduler.
// Either may be nil to leave that concern at its stock default.
func (s *Scheduler) SetControl(cfg *control.ConfigStore, metrics *control.MetricsRegistry) {
	s.Config = cfg
	s.Metrics = metrics
}

// RegisterProbes exposes this scheduler's internal counters on dp under
// "<name>.active_workers", "<name>.idle_workers" and "<name>.queue_depth".
func (s *Scheduler) RegisterProbes(dp *control.DebugProbes) {
	if dp == nil {
		return
	}
	dp.RegisterProbe(s.name+".active_workers", func() any { return s.ActiveCount() })
	dp.RegisterProbe(s.name+".idle_workers", func() any { return s.IdleCount() })
	dp.RegisterProbe(s.name+".queue_depth", func() any {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.queueDepthLocked()
	})
}

// queueDepthLocked returns the combined length of the shared queue and
// every pinned worker queue. Callers must hold s.mu.
func (s *Scheduler) queueDepthLocked() int {
	depth := s.shared.Length()
	for _, q := range s.pinned {
		depth += q.Length()
	}
	return depth
}

func (s *Scheduler) idleSleep() time.Duration {
	if s.Config != nil {
		if v, ok := s.Config.GetSnapshot()["sched.idle_sleep_ms"]; ok {
			if ms, ok := v.(int); ok && ms > 0 {
				return time.Duration(ms) * time.Millisecond
			}
		}
	}
	return DefaultIdleSleep
}

func (s *Scheduler) publishMetrics() {
	if s.Metrics == nil {
		return
	}
	s.mu.Lock()
	depth := s.queueDepthLocked()
	s.mu.Unlock()
	s.Metrics.Set(s.name+".active_workers", s.ActiveCount())
	s.Metrics.Set(s.name+".idle_workers", s.IdleCount())
	s.Metrics.Set(s.name+".queue_depth", depth)
}

// New constructs a Scheduler with n worker slots. If useCaller, one of
// those n slots is the constructing goroutine itself rather than a spawned
// thread; Start must then be called from that same goroutine.
func New(name string, n int, useCaller bool) *Scheduler {
	if n < 1 {
		n = 1
	}
	s := &Scheduler{
		name:      name,
		n:         n,
		useCaller: useCaller,
		stopCh:    make(chan struct{}),
		shared:    queue.New(),
		pinned:    make(map[int]*queue.Queue),
	}
	s.IdleBody = defaultIdleBody
	s.Tickle = func(*Scheduler) {}
	s.StoppingExtra = func() bool { return true }
	return s
}

func defaultIdleBody(s *Scheduler, workerIdx int) {
	spins := 0
	for !s.Stopping() {
		if canSpin && spins < maxIdleSpins {
			runtime.Gosched()
			spins++
			fiber.Yield()
			continue
		}
		spins = 0
		select {
		case <-time.After(s.idleSleep()):
		case <-s.stopCh:
		}
		fiber.Yield()
	}
}

// Name returns the scheduler's name.
func (s *Scheduler) Name() string { return s.name }

// NumWorkers returns the configured worker count, satisfying api.Executor.
func (s *Scheduler) NumWorkers() int { return s.n }

// Resize is not supported; the worker pool is fixed at construction.
func (s *Scheduler) Resize(int) {}

// Schedule enqueues a plain callable with the given thread hint (or
// ThreadHintAny). Submit implements api.Executor by delegating here.
func (s *Scheduler) Schedule(task func(), threadHint int) {
	s.enqueue(&taskItem{callable: task, threadHint: threadHint})
}

// Submit implements api.Executor.
func (s *Scheduler) Submit(task func()) error {
	s.Schedule(task, ThreadHintAny)
	return nil
}

// SubmitResult runs fn on the worker pool and reports its outcome on the
// returned channel, which receives exactly one value.
func (s *Scheduler) SubmitResult(fn func() (any, error)) <-chan api.Result[any] {
	out := make(chan api.Result[any], 1)
	s.Schedule(func() {
		v, err := fn()
		out <- api.Result[any]{Value: v, Err: err}
	}, ThreadHintAny)
	return out
}

// ScheduleFiber enqueues a caller-owned fiber with the given thread hint.
func (s *Scheduler) ScheduleFiber(fb *fiber.Fiber, threadHint int) {
	s.enqueue(&taskItem{fb: fb, threadHint: threadHint})
}

func (s *Scheduler) enqueue(it *taskItem) {
	s.mu.Lock()
	wasEmpty := s.queueDepthLocked() == 0
	if it.threadHint == ThreadHintAny {
		s.shared.Add(it)
	} else {
		q, ok := s.pinned[it.threadHint]
		if !ok {
			q = queue.New()
			s.pinned[it.threadHint] = q
		}
		q.Add(it)
	}
	s.mu.Unlock()
	if wasEmpty {
		s.Tickle(s)
	}
}

// dequeue pops the next task eligible for workerIdx: its own pinned queue
// first, then the shared queue. notify reports whether another worker
// should be woken because work remains that this worker cannot take.
func (s *Scheduler) dequeue(workerIdx int) (it *taskItem, notify bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.pinned[workerIdx]; ok && q.Length() > 0 {
		it = q.Remove().(*taskItem)
		return it, s.queueDepthLocked() > 0
	}
	if s.shared.Length() > 0 {
		it = s.shared.Remove().(*taskItem)
		return it, s.queueDepthLocked() > 0
	}
	// Nothing for this worker; wake a peer if a pinned queue for some
	// other worker still holds work this worker cannot take.
	for idx, q := range s.pinned {
		if idx != workerIdx && q.Length() > 0 {
			return nil, true
		}
	}
	return nil, false
}

// Start spawns the worker threads (N, or N-1 plus the calling goroutine if
// useCaller) and returns once every spawned thread's loop has begun
// running. If useCaller, Start must run on the goroutine meant to serve as
// the embedded worker; it does not block running that worker itself — the
// caller's worker loop only actually executes when Stop resumes it.
func (s *Scheduler) Start() {
	s.stopRequested.Store(false)
	s.stopCh = make(chan struct{})

	spawn := s.n
	startIdx := 0
	if s.useCaller {
		spawn = s.n - 1
		startIdx = 1
		s.callerFb = fiber.New(func() { s.workerLoopBody(0) }, 0, false)
		fiber.SetSchedulerFiber(s.callerFb)
	}

	s.threads = make([]*thread.Thread, 0, spawn)
	for i := 0; i < spawn; i++ {
		idx := startIdx + i
		s.wg.Add(1)
		th := thread.Spawn(s.name+"-worker", -1, func(t *thread.Thread) {
			defer s.wg.Done()
			fiber.SetSchedulerFiber(fiber.Current())
			s.workerLoopBody(idx)
		})
		s.threads = append(s.threads, th)
	}
}

// workerLoopBody is the per-worker loop described in §4.2: pop honoring the
// thread hint, run it, and fall back to the idle fiber when nothing is
// ready, exiting once the idle fiber terminates.
func (s *Scheduler) workerLoopBody(workerIdx int) {
	idle := fiber.New(func() { s.IdleBody(s, workerIdx) }, 0, false)
	for {
		it, notify := s.dequeue(workerIdx)
		if notify {
			s.Tickle(s)
		}
		if it != nil {
			s.active.Add(1)
			s.runTask(it)
			s.active.Add(-1)
			s.publishMetrics()
			continue
		}
		if idle.State() == fiber.StateTerm {
			return
		}
		s.idle.Add(1)
		idle.Resume()
		s.idle.Add(-1)
		if idle.State() == fiber.StateTerm {
			return
		}
	}
}

func (s *Scheduler) runTask(it *taskItem) {
	start := time.Now()
	if it.fb != nil {
		if it.fb.State() == fiber.StateReady {
			it.fb.Resume()
		}
	} else {
		fb := fiber.New(it.callable, 0, false)
		fb.Resume()
	}
	if s.Metrics != nil {
		s.Metrics.Set(s.name+".last_task_latency_ms", time.Since(start).Milliseconds())
		s.Metrics.Incr(s.name+".tasks_run", 1)
	}
}

// Stopping reports whether a stop was requested, the queue is empty, no
// task is active, and StoppingExtra holds.
func (s *Scheduler) Stopping() bool {
	if !s.stopRequested.Load() {
		return false
	}
	s.mu.Lock()
	empty := s.queueDepthLocked() == 0
	s.mu.Unlock()
	return empty && s.active.Load() == 0 && s.StoppingExtra()
}

// Stop requests shutdown, wakes every worker (and the embedded caller
// fiber, if any) one extra time, drains the caller's embedded worker
// synchronously, and joins every spawned thread. Calling Stop more than
// once is safe; only the first call has effect.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.stopRequested.Store(true)
		close(s.stopCh)

		wakes := len(s.threads)
		if s.callerFb != nil {
			wakes++
		}
		for i := 0; i < wakes; i++ {
			s.Tickle(s)
		}

		if s.callerFb != nil && s.callerFb.State() == fiber.StateReady {
			s.callerFb.Resume()
		}

		s.wg.Wait()
		for _, t := range s.threads {
			t.Join()
		}
	})
}

// Shutdown implements api.GracefulShutdown by delegating to Stop.
func (s *Scheduler) Shutdown() error {
	s.Stop()
	return nil
}

// IdleCount returns the number of workers currently parked in their idle
// fiber. Used by IOManager's Tickle override to collapse redundant wakes.
func (s *Scheduler) IdleCount() int32 { return s.idle.Load() }

// ActiveCount returns the number of tasks currently executing.
func (s *Scheduler) ActiveCount() int32 { return s.active.Load() }

var (
	_ api.Executor         = (*Scheduler)(nil)
	_ api.GracefulShutdown = (*Scheduler)(nil)
)
