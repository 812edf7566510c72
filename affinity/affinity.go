// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.
//
// Callers are scheduler worker threads (thread.Spawn's per-worker
// goroutine, locked to its OS thread) pinning themselves to the logical
// CPU named by a Scheduler affinity hint; SetAffinity only has a stable
// effect when called from the thread that is meant to stay pinned for its
// whole lifetime.

package affinity

import (
	"fmt"
	"runtime"
)

// SetAffinity pins the calling OS thread to a given logical CPU/core on
// supported platforms. On unsupported platforms, or for a CPU index
// outside [0, runtime.NumCPU()), it returns an error instead of silently
// pinning to an arbitrary core.
func SetAffinity(cpuID int) error {
	if cpuID < 0 || cpuID >= runtime.NumCPU() {
		return fmt.Errorf("affinity: CPU index %d out of range [0, %d)", cpuID, runtime.NumCPU())
	}
	return setAffinityPlatform(cpuID)
}
