//go:build !linux
// +build !linux

// File: hook/io_stub.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux platforms have no epoll-backed IOManager (see
// reactor/reactor_stub.go), so the hook layer cannot intercept anything
// and every covered call is an error.

package hook

import "errors"

var errUnsupported = errors.New("hook: not supported on this platform")

func (h *Hooks) Read(fd int, p []byte) (int, error)  { return 0, errUnsupported }
func (h *Hooks) Write(fd int, p []byte) (int, error) { return 0, errUnsupported }
func (h *Hooks) Close(fd int) error                  { return errUnsupported }
