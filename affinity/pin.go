// File: affinity/pin.go
// Author: momentics <momentics@gmail.com>
//
// Per-goroutine pin tracking on top of SetAffinity, implementing api.Affinity.
// Pinning only has a stable effect on a goroutine that owns its OS thread for
// its whole lifetime (runtime.LockOSThread, as thread.Spawn does); Pin does
// not call LockOSThread itself.

package affinity

import (
	"errors"

	"github.com/momentics/hioload-fiber/api"
	"github.com/momentics/hioload-fiber/internal/gls"
)

type pinKey struct{}

type pinState struct {
	cpuID int
}

// ErrNotPinned is returned by Unpin/Get when the calling goroutine has not
// called Pin.
var ErrNotPinned = errors.New("affinity: calling goroutine is not pinned")

// Pinner implements api.Affinity against the calling goroutine's OS thread.
type Pinner struct{}

// Pin locks the calling goroutine's OS thread to cpuID. numaID is ignored
// and not recorded: this module targets flat CPU-index affinity, not NUMA
// topology (see DESIGN.md).
func (Pinner) Pin(cpuID int, numaID int) error {
	if err := SetAffinity(cpuID); err != nil {
		return err
	}
	gls.Set(pinKey{}, &pinState{cpuID: cpuID})
	return nil
}

// Unpin clears the calling goroutine's recorded pin. The OS-level affinity
// mask is left as the platform API set it; there is no portable "reset to
// all CPUs" call this package makes on the caller's behalf.
func (Pinner) Unpin() error {
	if _, ok := gls.Get(pinKey{}); !ok {
		return ErrNotPinned
	}
	gls.Set(pinKey{}, nil)
	return nil
}

// Get returns the calling goroutine's last Pin call's cpuID, or
// ErrNotPinned if it never called Pin. numaID is always -1.
func (Pinner) Get() (cpuID int, numaID int, err error) {
	v, ok := gls.Get(pinKey{})
	if !ok || v == nil {
		return 0, -1, ErrNotPinned
	}
	return v.(*pinState).cpuID, -1, nil
}

var _ api.Affinity = Pinner{}
