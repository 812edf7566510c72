package ioruntime

import (
	"os"
	"testing"
	"time"

	"github.com/momentics/hioload-fiber/control"
	"github.com/momentics/hioload-fiber/fiber"
)

func newTestManager(t *testing.T) *Manager {
	m, err := New("io-test", 2, false)
	if err != nil {
		t.Skipf("ioruntime not supported on this platform: %v", err)
	}
	return m
}

func TestAddEventReadinessFiresCallback(t *testing.T) {
	m := newTestManager(t)
	m.Start()
	defer m.Stop()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	done := make(chan struct{})
	if err := m.AddEvent(int(r.Fd()), DirRead, func() { close(done) }); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readiness callback never fired")
	}
}

func TestAddEventWithNilCallbackResumesCallingFiber(t *testing.T) {
	m := newTestManager(t)
	m.Start()
	defer m.Stop()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	reached := make(chan struct{})
	fb := fiber.New(func() {
		if err := m.AddEvent(int(r.Fd()), DirRead, nil); err != nil {
			return
		}
		fiber.Yield()
		close(reached)
	}, 0, false)

	resumeDone := make(chan struct{})
	go func() {
		fb.Resume()
		close(resumeDone)
	}()

	// Give AddEvent+Yield a moment to land before the fd becomes ready.
	time.Sleep(10 * time.Millisecond)
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-reached:
	case <-time.After(2 * time.Second):
		t.Fatal("fiber was never resumed on readiness")
	}
	<-resumeDone
}

func TestAddEventRejectsDoubleArm(t *testing.T) {
	m := newTestManager(t)
	m.Start()
	defer m.Stop()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	if err := m.AddEvent(int(r.Fd()), DirRead, func() {}); err != nil {
		t.Fatalf("first AddEvent: %v", err)
	}
	if err := m.AddEvent(int(r.Fd()), DirRead, func() {}); err != ErrAlreadyArmed {
		t.Fatalf("second AddEvent err = %v, want ErrAlreadyArmed", err)
	}
	m.CancelAll(int(r.Fd()))
}

func TestCancelEventFiresExactlyOnce(t *testing.T) {
	m := newTestManager(t)
	m.Start()
	defer m.Stop()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fired := make(chan struct{}, 2)
	if err := m.AddEvent(int(r.Fd()), DirRead, func() { fired <- struct{}{} }); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	m.CancelEvent(int(r.Fd()), DirRead)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled event's continuation never fired")
	}
	select {
	case <-fired:
		t.Fatal("continuation fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControlWiringPublishesWakeAndPendingMetrics(t *testing.T) {
	m := newTestManager(t)
	metrics := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	m.SetControl(nil, metrics)
	m.RegisterProbes(probes)
	m.Start()
	defer m.Stop()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	done := make(chan struct{})
	if err := m.AddEvent(int(r.Fd()), DirRead, func() { close(done) }); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readiness callback never fired")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := metrics.GetSnapshot()["io-test.pending_events"]; !ok {
		t.Fatal("expected pending_events metric to be published")
	}
	if _, ok := probes.DumpState()["io-test.wake_count"]; !ok {
		t.Fatal("expected wake_count probe to be registered")
	}
}
