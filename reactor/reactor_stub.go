//go:build !linux && !windows
// +build !linux,!windows

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Neither epoll (reactor_linux.go) nor IOCP (reactor_windows.go) exists on
// this platform, so ioruntime.New has nothing to demultiplex readiness
// with. Callers that only need the fiber/scheduler layer without IO
// readiness are unaffected; only ioruntime.New fails.

package reactor

import "fmt"

// NewReactor always fails: there is no event reactor backend for this
// platform.
func NewReactor() (EventReactor, error) {
	return nil, fmt.Errorf("reactor: no epoll/IOCP backend on this platform")
}
