// File: thread/thread.go
// Author: momentics <momentics@gmail.com>
//
// Worker-thread bootstrap. A Thread pins a goroutine to one OS thread with
// runtime.LockOSThread, gives it a stable name/id, and blocks the spawner
// until the thread's run loop has actually started — the synchronous
// start-up the scheduler's worker pool needs before it can hand out work.

package thread

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/momentics/hioload-fiber/affinity"
	"github.com/momentics/hioload-fiber/internal/gls"
	"github.com/momentics/hioload-fiber/internal/normalize"
)

var idCounter atomic.Uint64

type threadKey struct{}

// Thread is a named, identity-bearing OS thread running a single loop
// function. Construct with Spawn.
type Thread struct {
	id   uint64
	name string
	done chan struct{}
}

// Spawn starts a new OS thread (via LockOSThread) running loop, and blocks
// the calling goroutine until loop has begun executing. If cpuHint >= 0, the
// thread attempts to pin itself to that logical CPU before running loop;
// a failure to pin is non-fatal.
func Spawn(name string, cpuHint int, loop func(t *Thread)) *Thread {
	t := &Thread{
		id:   idCounter.Add(1),
		name: name,
		done: make(chan struct{}),
	}
	ready := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(t.done)

		gls.Set(threadKey{}, t)
		defer gls.Clear()

		if cpuHint >= 0 {
			_ = affinity.Pinner{}.Pin(normalize.CPUIndex(cpuHint, runtime.NumCPU()), -1)
		}
		close(ready)
		loop(t)
	}()
	<-ready
	return t
}

// ID returns the thread's monotonically increasing identifier.
func (t *Thread) ID() uint64 { return t.id }

// Name returns the thread's human-readable name.
func (t *Thread) Name() string { return t.name }

// String implements fmt.Stringer for log output.
func (t *Thread) String() string { return fmt.Sprintf("%s(%d)", t.name, t.id) }

// Join blocks until the thread's loop function has returned.
func (t *Thread) Join() { <-t.done }

// Current returns the Thread descriptor registered by Spawn for the calling
// goroutine, or nil if the calling goroutine was not started via Spawn (for
// example, a caller-embedded scheduler using the process's own main thread).
func Current() *Thread {
	if v, ok := gls.Get(threadKey{}); ok {
		return v.(*Thread)
	}
	return nil
}
