// File: control/runtime.go
// Author: momentics <momentics@gmail.com>
//
// Runtime bundles the ambient stack's three stores behind the single
// api.Control contract. sched, ioruntime and hook take its Config and
// Metrics stores through their SetControl methods and its Probes through
// RegisterProbes.

package control

import "github.com/momentics/hioload-fiber/api"

// Runtime composes a ConfigStore, MetricsRegistry and DebugProbes and
// implements api.Control over them.
type Runtime struct {
	Config  *ConfigStore
	Metrics *MetricsRegistry
	Probes  *DebugProbes
}

// NewRuntime constructs a Runtime with all three stores freshly allocated
// and the platform debug probes (platform_linux.go / platform_windows.go)
// already registered.
func NewRuntime() *Runtime {
	r := &Runtime{
		Config:  NewConfigStore(),
		Metrics: NewMetricsRegistry(),
		Probes:  NewDebugProbes(),
	}
	RegisterPlatformProbes(r.Probes)
	return r
}

// GetConfig implements api.Control.
func (r *Runtime) GetConfig() map[string]any { return r.Config.GetSnapshot() }

// SetConfig implements api.Control.
func (r *Runtime) SetConfig(cfg map[string]any) error {
	return r.Config.SetConfig(cfg)
}

// Stats implements api.Control.
func (r *Runtime) Stats() map[string]any { return r.Metrics.GetSnapshot() }

// OnReload implements api.Control.
func (r *Runtime) OnReload(fn func()) { r.Config.OnReload(fn) }

// RegisterDebugProbe implements api.Control.
func (r *Runtime) RegisterDebugProbe(name string, fn func() any) {
	r.Probes.RegisterProbe(name, fn)
}

var _ api.Control = (*Runtime)(nil)
