// Package api
// Author: momentics
//
// Introspection contract for the scheduler/IO-runtime's control plane,
// implemented by control.DebugProbes and fed platform facts (CPU count,
// page size, process id) by control.RegisterPlatformProbes.

package api

// Debug exposes ad hoc named introspection hooks.
type Debug interface {
    // DumpState calls every registered probe and returns its results keyed
    // by probe name. Probe functions run synchronously, under DumpState's
    // caller's goroutine.
    DumpState() map[string]any

    // RegisterProbe adds a named probe, overwriting any prior probe under
    // the same name.
    RegisterProbe(name string, fn func() any)
}
