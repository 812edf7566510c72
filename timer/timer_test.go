package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAddTimerFiresAndDrains(t *testing.T) {
	m := New(nil)
	var fired atomic.Int32
	m.AddTimer(5, func() { fired.Add(1) }, false)

	time.Sleep(20 * time.Millisecond)
	out := m.DrainExpired(nil)
	if len(out) != 1 {
		t.Fatalf("got %d expired callbacks, want 1", len(out))
	}
	out[0]()
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}
	if m.HasTimer() {
		t.Fatal("one-shot timer should be gone after draining")
	}
}

func TestRecurringTimerReinserts(t *testing.T) {
	m := New(nil)
	m.AddTimer(5, func() {}, true)
	time.Sleep(20 * time.Millisecond)
	out := m.DrainExpired(nil)
	if len(out) != 1 {
		t.Fatalf("got %d expired callbacks, want 1", len(out))
	}
	if !m.HasTimer() {
		t.Fatal("recurring timer must be reinserted after firing")
	}
}

func TestCancelIdempotent(t *testing.T) {
	m := New(nil)
	h := m.AddTimer(1000, func() {}, false)
	if !h.Cancel() {
		t.Fatal("first Cancel should succeed")
	}
	if h.Cancel() {
		t.Fatal("second Cancel should report false")
	}
	if m.HasTimer() {
		t.Fatal("cancelled timer should not remain in the set")
	}
}

func TestNextTimeoutEmptyAndDue(t *testing.T) {
	m := New(nil)
	if got := m.NextTimeout(); got != TimeoutInfinite {
		t.Fatalf("NextTimeout() on empty set = %d, want TimeoutInfinite", got)
	}
	m.AddTimer(0, func() {}, false)
	time.Sleep(2 * time.Millisecond)
	if got := m.NextTimeout(); got != 0 {
		t.Fatalf("NextTimeout() for a due timer = %d, want 0", got)
	}
}

func TestOnFrontInsertedFiresOnceUntilCleared(t *testing.T) {
	var calls atomic.Int32
	m := New(func() { calls.Add(1) })
	m.AddTimer(1000, func() {}, false)
	if calls.Load() != 1 {
		t.Fatalf("onFrontInserted calls = %d, want 1 after first insert", calls.Load())
	}
	// A second, later timer is not the new front; no additional tickle.
	m.AddTimer(2000, func() {}, false)
	if calls.Load() != 1 {
		t.Fatalf("onFrontInserted calls = %d, want still 1", calls.Load())
	}
	// An earlier timer is the new front, but NextTimeout has not cleared the
	// outstanding tickle yet; no additional call.
	m.AddTimer(500, func() {}, false)
	if calls.Load() != 1 {
		t.Fatalf("onFrontInserted calls = %d, want still 1 before NextTimeout", calls.Load())
	}
	// Once NextTimeout clears the flag, a new front fires it again.
	m.NextTimeout()
	m.AddTimer(100, func() {}, false)
	if calls.Load() != 2 {
		t.Fatalf("onFrontInserted calls = %d, want 2 after NextTimeout cleared the flag", calls.Load())
	}
}

func TestRefreshMovesDeadline(t *testing.T) {
	m := New(nil)
	h := m.AddTimer(1000, func() {}, false)
	h.Refresh()
	// Still far in the future; nothing should drain yet.
	out := m.DrainExpired(nil)
	if len(out) != 0 {
		t.Fatalf("got %d expired, want 0 right after Refresh", len(out))
	}
}
