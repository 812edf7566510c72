// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store for the scheduler/IO-runtime tunables
// (worker count, quantum, affinity mode) with dynamic update and
// hot-reload propagation to both per-instance and process-wide listeners.

package control

import (
	"fmt"
	"sync"
)

// schedTunableRanges bounds a handful of well-known scheduler tunable keys.
// Unknown keys pass through unchecked; known keys outside range are
// rejected. sched.Scheduler itself reads back only "sched.idle_sleep_ms",
// which is not listed here, and none of these three keys is read by any
// package in this module.
var schedTunableRanges = map[string][2]int{
	"sched.workers":      {1, 4096},
	"sched.quantum_us":   {1, 1_000_000},
	"sched.affinity_cpu": {-1, 4095},
}

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    make(map[string]any),
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// SetConfig merges new values and dispatches reload if needed. Known
// scheduler tunables are range-checked before being merged; the whole call
// is rejected (no partial merge, no reload) on the first bad value.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) error {
	for k, v := range newCfg {
		bounds, known := schedTunableRanges[k]
		if !known {
			continue
		}
		n, ok := v.(int)
		if !ok || n < bounds[0] || n > bounds[1] {
			return fmt.Errorf("control: config key %q = %v out of range [%d, %d]", k, v, bounds[0], bounds[1])
		}
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	cs.dispatchReload()
	return nil
}

// OnReload registers a listener hook called on config changes to this store.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// dispatchReload invokes this store's own listeners plus every process-wide
// hook registered via RegisterReloadHook.
func (cs *ConfigStore) dispatchReload() {
	for _, fn := range cs.listeners {
		go fn()
	}
	TriggerHotReload()
}
