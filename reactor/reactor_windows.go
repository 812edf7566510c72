//go:build windows
// +build windows

// File: reactor/reactor_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows IOCP (I/O Completion Port) reactor implementation and factory.
// IOCP is completion-based rather than readiness-based, so Modify is a
// no-op (the association made at Register time already covers both
// directions) and Wake posts a zero-byte completion.

package reactor

import (
	"errors"

	"golang.org/x/sys/windows"
)

// windowsReactor is an IOCP-based event reactor.
type windowsReactor struct {
	iocp windows.Handle
}

// NewReactor constructs a new platform-specific EventReactor for Windows.
func NewReactor() (EventReactor, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return &windowsReactor{iocp: port}, nil
}

// Register associates a handle with the IOCP.
func (r *windowsReactor) Register(fd uintptr, dir Dir, userData uintptr) error {
	h := windows.Handle(fd)
	_, err := windows.CreateIoCompletionPort(h, r.iocp, userData, 0)
	return err
}

// Modify is a no-op: IOCP associations are not direction-scoped.
func (r *windowsReactor) Modify(fd uintptr, dir Dir, userData uintptr) error { return nil }

// Unregister is not supported by IOCP; handles are disassociated by
// closing them.
func (r *windowsReactor) Unregister(fd uintptr) error {
	return errors.New("reactor: IOCP does not support explicit unregister")
}

// Wait blocks for one completion and fills events[0].
func (r *windowsReactor) Wait(events []Event, timeoutMs int) (int, error) {
	if len(events) == 0 {
		return 0, errors.New("reactor: empty event buffer")
	}
	timeout := uint32(windows.INFINITE)
	if timeoutMs >= 0 {
		timeout = uint32(timeoutMs)
	}

	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped
	err := windows.GetQueuedCompletionStatus(r.iocp, &bytes, &key, &overlapped, timeout)
	if err != nil {
		if err == windows.WAIT_TIMEOUT {
			return 0, nil
		}
		return 0, err
	}
	if overlapped == nil {
		events[0] = Event{Wake: true}
		return 1, nil
	}
	events[0] = Event{UserData: key, Read: true, Write: true}
	return 1, nil
}

// Wake posts a completion with a nil overlapped pointer.
func (r *windowsReactor) Wake() {
	_ = windows.PostQueuedCompletionStatus(r.iocp, 0, 0, nil)
}

// Close closes the IOCP handle.
func (r *windowsReactor) Close() error {
	return windows.CloseHandle(r.iocp)
}
