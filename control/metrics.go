// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for scheduler/IO-runtime counters (tasks run)
// and gauges (worker, queue, pending-event and wake counts), in a
// thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"
)

// metricsUpdatedKey is the reserved snapshot key carrying the time of the
// most recent Set/Incr call, so a caller polling Stats() can tell a
// registry went stale without needing its own heartbeat.
const metricsUpdatedKey = "_updated_at"

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key to an arbitrary value (a gauge).
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Incr adds delta to an int64 counter, creating it at delta if absent.
// sched.Scheduler uses it for its "<name>.tasks_run" count, which
// accumulates rather than replaces.
func (mr *MetricsRegistry) Incr(key string, delta int64) {
	mr.mu.Lock()
	cur, _ := mr.metrics[key].(int64)
	mr.metrics[key] = cur + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics plus the reserved
// metricsUpdatedKey timestamp of the most recent write.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics)+1)
	for k, v := range mr.metrics {
		out[k] = v
	}
	if !mr.updated.IsZero() {
		out[metricsUpdatedKey] = mr.updated
	}
	return out
}
