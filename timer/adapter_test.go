package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerAdapterSchedulesAndFires(t *testing.T) {
	m := New(nil)
	sched := m.AsScheduler()

	var fired atomic.Int32
	if _, err := sched.Schedule(5*int64(time.Millisecond), func() { fired.Add(1) }); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	out := m.DrainExpired(nil)
	for _, cb := range out {
		cb()
	}
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}
}

func TestSchedulerAdapterCancel(t *testing.T) {
	m := New(nil)
	sched := m.AsScheduler()

	var fired atomic.Int32
	c, err := sched.Schedule(int64(time.Second), func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := sched.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done() channel should be closed after Cancel")
	}
	if m.HasTimer() {
		t.Fatal("cancelled timer should not remain in the set")
	}
}

func TestSchedulerAdapterNowIsMonotonicallyIncreasing(t *testing.T) {
	sched := New(nil).AsScheduler()
	a := sched.Now()
	time.Sleep(time.Millisecond)
	b := sched.Now()
	if b <= a {
		t.Fatalf("Now() did not advance: a=%d b=%d", a, b)
	}
}
