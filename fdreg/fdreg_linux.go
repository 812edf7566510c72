//go:build linux
// +build linux

// File: fdreg/fdreg_linux.go
// Author: momentics <momentics@gmail.com>
//
// Descriptor type probing via fstat, grounded on the same
// golang.org/x/sys/unix dependency the reactor and ioruntime packages use.

package fdreg

import "golang.org/x/sys/unix"

func probeAndInstall(fd int, c *Ctx) {
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFSOCK {
		return
	}
	c.isSocket = true

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return
	}
	c.userNonBlock = flags&unix.O_NONBLOCK != 0
	if flags&unix.O_NONBLOCK == 0 {
		_, _ = unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags|unix.O_NONBLOCK)
	}
	c.systemNonBlock = true
}
