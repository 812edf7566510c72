package control

import (
	"testing"
	"time"
)

func TestRuntimeImplementsControl(t *testing.T) {
	r := NewRuntime()
	r.RegisterDebugProbe("x", func() any { return 42 })
	if err := r.SetConfig(map[string]any{"a": 1}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if got := r.GetConfig()["a"]; got != 1 {
		t.Fatalf("GetConfig()[a] = %v, want 1", got)
	}

	r.Metrics.Set("y", 7)
	if got := r.Stats()["y"]; got != 7 {
		t.Fatalf("Stats()[y] = %v, want 7", got)
	}

	probes := r.Probes.DumpState()
	if got := probes["x"]; got != 42 {
		t.Fatalf("probe x = %v, want 42", got)
	}
	if _, ok := probes["platform.cpus"]; !ok {
		t.Fatal("expected platform.cpus probe registered by NewRuntime")
	}
}

func TestRuntimeOnReloadFires(t *testing.T) {
	r := NewRuntime()
	fired := make(chan struct{}, 1)
	r.OnReload(func() { fired <- struct{}{} })
	r.SetConfig(map[string]any{"k": "v"})
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("reload listener never fired")
	}
}
