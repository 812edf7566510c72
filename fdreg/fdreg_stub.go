//go:build !linux
// +build !linux

// File: fdreg/fdreg_stub.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux descriptor probing: the hook layer is not wired to epoll on
// these platforms either (see reactor/reactor_stub.go), so every
// descriptor is reported as a non-socket and left untouched.

package fdreg

func probeAndInstall(fd int, c *Ctx) {}
