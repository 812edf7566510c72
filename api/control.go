// File: api/control.go
// Package api defines Control interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control is the contract control.Runtime implements over a ConfigStore,
// MetricsRegistry and DebugProbes: dynamic scheduler/IO-runtime tunables,
// accumulated counters and gauges, and ad hoc debug probes, all behind one
// handle a sched.Scheduler or ioruntime.Manager can be wired to.
type Control interface {
	// GetConfig returns a snapshot of the current tunables.
	GetConfig() map[string]any
	// SetConfig merges cfg into the store, rejecting known scheduler
	// tunables (e.g. worker count, quantum) whose value is out of range.
	SetConfig(cfg map[string]any) error
	// Stats returns a snapshot of accumulated counters and gauges.
	Stats() map[string]any
	// OnReload registers fn to run whenever SetConfig succeeds.
	OnReload(fn func())
	// RegisterDebugProbe adds a named introspection hook queried on demand.
	RegisterDebugProbe(name string, fn func() any)
}
