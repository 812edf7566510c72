// Package api
// Author: momentics@gmail.com
//
// Worker-thread affinity contract consumed by thread.Spawn to pin a
// scheduler worker's OS thread to the logical CPU its ThreadHint names.

package api

// Affinity pins the calling goroutine's OS thread to a CPU. numaID is part
// of the contract, but affinity.Pinner ignores it and always reports -1
// from Get: this runtime only does flat CPU-index pinning (see DESIGN.md).
type Affinity interface {
	// Pin locks the current goroutine's OS thread to cpuID.
	Pin(cpuID int, numaID int) error
	// Unpin clears the calling goroutine's recorded pin. It does not
	// reset the OS-level affinity mask.
	Unpin() error
	// Get returns the calling goroutine's last Pin call's cpuID, or an
	// error if the goroutine never called Pin.
	Get() (cpuID int, numaID int, err error)
}
