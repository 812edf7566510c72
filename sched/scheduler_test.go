package sched

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-fiber/control"
)

func TestScheduleRunsCallable(t *testing.T) {
	s := New("test", 2, false)
	s.Start()

	var ran atomic.Bool
	done := make(chan struct{})
	s.Schedule(func() {
		ran.Store(true)
		close(done)
	}, ThreadHintAny)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run in time")
	}
	if !ran.Load() {
		t.Fatal("task did not set ran")
	}
	s.Stop()
}

func TestThreadHintPinning(t *testing.T) {
	s := New("test", 3, false)
	s.Start()

	results := make(chan int, 10)
	for i := 0; i < 10; i++ {
		s.Schedule(func() { results <- 1 }, 1)
	}
	for i := 0; i < 10; i++ {
		select {
		case <-results:
		case <-time.After(2 * time.Second):
			t.Fatal("pinned tasks did not all complete in time")
		}
	}
	s.Stop()
}

func TestStopDrainsQueueAndJoinsWorkers(t *testing.T) {
	s := New("test", 4, false)
	s.Start()

	var completed atomic.Int32
	for i := 0; i < 50; i++ {
		s.Schedule(func() { completed.Add(1) }, ThreadHintAny)
	}
	s.Stop()
	if completed.Load() != 50 {
		t.Fatalf("completed = %d, want 50", completed.Load())
	}
}

func TestUseCallerEmbedsSchedulerFiber(t *testing.T) {
	s := New("test", 2, true)
	s.Start()

	var ran atomic.Bool
	s.Schedule(func() { ran.Store(true) }, ThreadHintAny)

	// The embedded scheduler fiber only drains on Stop, per the caller
	// contract; give the other spawned worker a chance to pick it up too.
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	if !ran.Load() {
		t.Fatal("scheduled task never ran even after Stop drained the embedded worker")
	}
}

func TestStoppingPredicate(t *testing.T) {
	s := New("test", 1, false)
	if s.Stopping() {
		t.Fatal("Stopping() should be false before a stop is requested")
	}
	s.Start()
	s.Stop()
}

func TestControlWiringPublishesMetricsAndProbes(t *testing.T) {
	s := New("ctltest", 2, false)
	metrics := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	cfg := control.NewConfigStore()
	cfg.SetConfig(map[string]any{"sched.idle_sleep_ms": 1})
	s.SetControl(cfg, metrics)
	s.RegisterProbes(probes)
	s.Start()

	done := make(chan struct{})
	s.Schedule(func() { close(done) }, ThreadHintAny)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run in time")
	}
	s.Stop()

	if _, ok := metrics.GetSnapshot()["ctltest.last_task_latency_ms"]; !ok {
		t.Fatal("expected per-task latency metric to be published")
	}
	dump := probes.DumpState()
	if _, ok := dump["ctltest.active_workers"]; !ok {
		t.Fatal("expected active_workers probe to be registered")
	}
}

func TestSubmitResultReportsValueAndError(t *testing.T) {
	s := New("result-test", 1, false)
	s.Start()
	defer s.Stop()

	ok := s.SubmitResult(func() (any, error) { return 42, nil })
	select {
	case r := <-ok:
		if r.Err != nil || r.Value.(int) != 42 {
			t.Fatalf("got (%v, %v), want (42, nil)", r.Value, r.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("result did not arrive in time")
	}

	failErr := errTestFailure
	failed := s.SubmitResult(func() (any, error) { return nil, failErr })
	select {
	case r := <-failed:
		if r.Err != failErr {
			t.Fatalf("Err = %v, want %v", r.Err, failErr)
		}
	case <-time.After(time.Second):
		t.Fatal("result did not arrive in time")
	}
}

var errTestFailure = errors.New("sched: test failure")
