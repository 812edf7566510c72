package thread

import (
	"testing"
)

func TestSpawnBlocksUntilLoopStarted(t *testing.T) {
	started := make(chan struct{})
	th := Spawn("worker-0", -1, func(t *Thread) {
		close(started)
	})
	select {
	case <-started:
	default:
		t.Fatal("Spawn returned before loop began running")
	}
	th.Join()
	if th.Name() != "worker-0" {
		t.Fatalf("Name() = %q, want worker-0", th.Name())
	}
}

func TestCurrentInsideAndOutsideSpawn(t *testing.T) {
	var inside *Thread
	th := Spawn("probe", -1, func(t *Thread) {
		inside = Current()
	})
	th.Join()
	if inside == nil {
		t.Fatal("Current() returned nil inside a spawned thread's loop")
	}
	if inside.ID() != th.ID() {
		t.Fatalf("Current().ID() = %d, want %d", inside.ID(), th.ID())
	}
	if Current() != nil {
		t.Fatal("Current() should be nil on the test goroutine, which was not Spawned")
	}
}

func TestSemaphorePostWait(t *testing.T) {
	s := NewSemaphore(2)
	if s.TryWait() {
		t.Fatal("TryWait succeeded on an empty semaphore")
	}
	s.Post()
	s.Post()
	s.Wait()
	if !s.TryWait() {
		t.Fatal("TryWait failed after two Posts and one Wait")
	}
}
