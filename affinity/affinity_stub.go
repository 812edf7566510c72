//go:build !linux && !windows
// +build !linux,!windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms with neither the Linux nor the Windows affinity
// backend. thread.Spawn treats a non-nil error here as non-fatal: a
// worker that cannot be pinned still runs, just without the scheduler's
// affinity hint honored.

package affinity

import "fmt"

// setAffinityPlatform is a stub for platforms where CPU affinity is not supported.
func setAffinityPlatform(cpuID int) error {
	return fmt.Errorf("affinity: pinning to cpu %d not supported on this platform", cpuID)
}
