// File: hook/hook.go
// Author: momentics <momentics@gmail.com>
//
// Explicit I/O facade that turns a blocking call into register-interest,
// yield, resume, retry against an IOManager, instead of intercepting libc
// symbols: callers opt in by calling through this package rather than the
// raw syscall, matching the Design Notes' preference for an explicit
// facade over symbol interposition. The per-goroutine enabled flag reuses
// internal/gls, the same mechanism fiber's Current/SchedulerFiber use for
// their thread-local slots.

package hook

import (
	"sync/atomic"

	"github.com/momentics/hioload-fiber/control"
	"github.com/momentics/hioload-fiber/fdreg"
	"github.com/momentics/hioload-fiber/internal/gls"
	"github.com/momentics/hioload-fiber/ioruntime"
)

type enabledKey struct{}

// Hooks binds an IOManager and an FdRegistry to the blocking-call
// replacements in this package.
type Hooks struct {
	IO  *ioruntime.Manager
	Fds *fdreg.Registry

	// Metrics, if set via SetControl, receives "hook.retries" and
	// "hook.timeouts" running counts.
	Metrics *control.MetricsRegistry

	retries  atomic.Int64
	timeouts atomic.Int64
}

// New returns a Hooks bound to io and the default FdRegistry.
func New(io *ioruntime.Manager) *Hooks {
	return &Hooks{IO: io, Fds: fdreg.Default()}
}

// SetControl wires a config store and metrics registry into the hook layer.
// cfg's "fdreg.default_recv_timeout_ms"/"fdreg.default_send_timeout_ms"
// (int64, milliseconds) become the default timeout newly-seen descriptors
// start with; either argument may be nil.
func (h *Hooks) SetControl(cfg *control.ConfigStore, metrics *control.MetricsRegistry) {
	h.Metrics = metrics
	if cfg == nil {
		return
	}
	snap := cfg.GetSnapshot()
	var recvMs, sendMs int64
	if v, ok := snap["fdreg.default_recv_timeout_ms"].(int64); ok {
		recvMs = v
	}
	if v, ok := snap["fdreg.default_send_timeout_ms"].(int64); ok {
		sendMs = v
	}
	h.Fds.SetDefaultTimeouts(recvMs, sendMs)
}

// RegisterProbes exposes this hook layer's retry/timeout counters on dp.
func (h *Hooks) RegisterProbes(dp *control.DebugProbes) {
	if dp == nil {
		return
	}
	dp.RegisterProbe("hook.retries", func() any { return h.retries.Load() })
	dp.RegisterProbe("hook.timeouts", func() any { return h.timeouts.Load() })
}

func (h *Hooks) recordRetry() {
	n := h.retries.Add(1)
	if h.Metrics != nil {
		h.Metrics.Set("hook.retries", n)
	}
}

func (h *Hooks) recordTimeout() {
	n := h.timeouts.Add(1)
	if h.Metrics != nil {
		h.Metrics.Set("hook.timeouts", n)
	}
}

// Enable turns on hooking for the calling goroutine.
func Enable() { gls.Set(enabledKey{}, true) }

// Disable turns off hooking for the calling goroutine; covered calls fall
// straight through to the underlying primitive.
func Disable() { gls.Set(enabledKey{}, false) }

// Enabled reports whether hooking is currently on for the calling
// goroutine. It defaults to true — a goroutine must opt out explicitly.
func Enabled() bool {
	v, ok := gls.Get(enabledKey{})
	if !ok {
		return true
	}
	return v.(bool)
}
