package control

import (
	"testing"
	"time"
)

func TestSetConfigRejectsOutOfRangeSchedTunable(t *testing.T) {
	cs := NewConfigStore()
	if err := cs.SetConfig(map[string]any{"sched.workers": 0}); err == nil {
		t.Fatal("expected SetConfig to reject sched.workers=0")
	}
	if _, ok := cs.GetSnapshot()["sched.workers"]; ok {
		t.Fatal("rejected key must not be merged")
	}
}

func TestSetConfigAcceptsUnknownKeys(t *testing.T) {
	cs := NewConfigStore()
	if err := cs.SetConfig(map[string]any{"app.label": "x"}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if got := cs.GetSnapshot()["app.label"]; got != "x" {
		t.Fatalf("app.label = %v, want x", got)
	}
}

func TestDispatchReloadFiresProcessWideHook(t *testing.T) {
	fired := make(chan struct{}, 1)
	RegisterReloadHook(func() { fired <- struct{}{} })

	cs := NewConfigStore()
	if err := cs.SetConfig(map[string]any{"sched.quantum_us": 100}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("process-wide reload hook never fired from SetConfig")
	}
}

func TestTriggerHotReloadSyncRunsBeforeReturning(t *testing.T) {
	ran := false
	RegisterReloadHook(func() { ran = true })
	TriggerHotReloadSync()
	if !ran {
		t.Fatal("TriggerHotReloadSync should run hooks before returning")
	}
}

func TestMetricsIncrAccumulates(t *testing.T) {
	mr := NewMetricsRegistry()
	mr.Incr("tasks_run", 1)
	mr.Incr("tasks_run", 2)
	snap := mr.GetSnapshot()
	if got := snap["tasks_run"]; got != int64(3) {
		t.Fatalf("tasks_run = %v, want 3", got)
	}
	if _, ok := snap[metricsUpdatedKey]; !ok {
		t.Fatal("expected _updated_at in snapshot after a write")
	}
}
