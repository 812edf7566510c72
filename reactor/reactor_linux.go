//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor implementation and factory.

package reactor

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// linuxReactor is an epoll-based event reactor with an eventfd wake
// descriptor wired in at construction time. A single linuxReactor is
// shared across every scheduler worker, so it holds no event buffer of
// its own: Wait allocates one locally per call, the way the original's
// idle() keeps the epoll events array as a stack-local rather than a
// field shared across threads.
type linuxReactor struct {
	epfd   int
	wakeFd int
}

// NewReactor constructs a new platform-specific EventReactor for Linux.
func NewReactor() (EventReactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	r := &linuxReactor{epfd: epfd, wakeFd: wakeFd}
	wakeEv := &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, wakeEv); err != nil {
		_ = unix.Close(wakeFd)
		_ = unix.Close(epfd)
		return nil, err
	}
	return r, nil
}

func epollBits(dir Dir) uint32 {
	bits := uint32(unix.EPOLLET)
	if dir&DirRead != 0 {
		bits |= unix.EPOLLIN
	}
	if dir&DirWrite != 0 {
		bits |= unix.EPOLLOUT
	}
	return bits
}

// Register adds a file descriptor to epoll, packing userData into the
// event's Fd field's companion Pad is avoided: ioruntime looks the
// descriptor up in its own fd-indexed array, so only Fd itself is needed.
func (r *linuxReactor) Register(fd uintptr, dir Dir, userData uintptr) error {
	ev := &unix.EpollEvent{Events: epollBits(dir), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), ev)
}

// Modify rearms fd with a new direction mask.
func (r *linuxReactor) Modify(fd uintptr, dir Dir, userData uintptr) error {
	ev := &unix.EpollEvent{Events: epollBits(dir), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, int(fd), ev)
}

// Unregister removes fd from epoll.
func (r *linuxReactor) Unregister(fd uintptr) error {
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
}

// Wait waits for epoll events and fills the result into events, retrying
// transparently on EINTR. The raw epoll buffer is local to this call, so
// concurrent callers (one per scheduler worker) never share it.
func (r *linuxReactor) Wait(events []Event, timeoutMs int) (int, error) {
	var buf [256]unix.EpollEvent
	for {
		n, err := unix.EpollWait(r.epfd, buf[:], timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, err
		}
		limit := n
		if limit > len(events) {
			limit = len(events)
		}
		for i := 0; i < limit; i++ {
			raw := buf[i]
			if int(raw.Fd) == r.wakeFd {
				r.drainWake()
				events[i] = Event{Fd: uintptr(raw.Fd), Wake: true}
				continue
			}
			events[i] = Event{
				Fd:    uintptr(raw.Fd),
				Read:  raw.Events&unix.EPOLLIN != 0,
				Write: raw.Events&unix.EPOLLOUT != 0,
				Err:   raw.Events&unix.EPOLLERR != 0,
				Hup:   raw.Events&unix.EPOLLHUP != 0,
			}
		}
		return limit, nil
	}
}

func (r *linuxReactor) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(r.wakeFd, buf[:])
}

// Wake writes to the eventfd, unblocking a concurrent Wait.
func (r *linuxReactor) Wake() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(r.wakeFd, buf[:])
}

// Close closes the epoll instance and the wake descriptor.
func (r *linuxReactor) Close() error {
	_ = unix.Close(r.wakeFd)
	return unix.Close(r.epfd)
}
