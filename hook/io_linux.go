//go:build linux
// +build linux

// File: hook/io_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux implementations of the covered blocking primitives, following the
// generic do_io contract: try the syscall, and on EAGAIN arm a timeout (if
// one is configured) plus readiness interest, then yield and retry on
// resume.

package hook

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-fiber/fiber"
	"github.com/momentics/hioload-fiber/ioruntime"
)

// ErrTimedOut is returned by a covered call when its configured timeout
// elapses before the descriptor became ready.
type timeoutError struct{}

func (timeoutError) Error() string   { return "hook: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// ErrTimedOut is the sentinel timeout error covered calls return.
var ErrTimedOut error = timeoutError{}

type callState struct {
	timedOut atomic.Bool
}

// doIO runs call, and if it returns EAGAIN/EWOULDBLOCK, waits for dir
// readiness on fd (bounded by the registry's cached timeout for this
// direction) before retrying. recv selects which cached timeout applies.
func (h *Hooks) doIO(fd int, dir ioruntime.Direction, recv bool, call func() (int, error)) (int, error) {
	if !Enabled() {
		return call()
	}
	ctx := h.Fds.Get(fd, true)
	if ctx == nil || !ctx.IsSocket() || ctx.UserNonBlock() {
		return call()
	}
	timeoutMs := ctx.Timeout(recv)

	for {
		n, err := call()
		if err == nil {
			return n, nil
		}
		if err == unix.EINTR {
			continue
		}
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
			return n, err
		}

		h.recordRetry()

		state := &callState{}
		var th *timerHandleHolder
		if timeoutMs > 0 {
			th = h.armTimeout(fd, dir, timeoutMs, state)
		}

		if err := h.IO.AddEvent(fd, dir, nil); err != nil {
			if th != nil {
				th.cancel()
			}
			return -1, err
		}

		fiber.Yield()

		if th != nil {
			th.cancel()
		}
		if state.timedOut.Load() {
			h.recordTimeout()
			return -1, ErrTimedOut
		}
	}
}

type timerHandleHolder struct {
	cancel func()
}

func (h *Hooks) armTimeout(fd int, dir ioruntime.Direction, ms int64, state *callState) *timerHandleHolder {
	handle := h.IO.AddConditionTimer(ms, func() {
		state.timedOut.Store(true)
		h.IO.CancelEvent(fd, dir)
	}, func() bool { return true }, false)
	return &timerHandleHolder{cancel: func() { handle.Cancel() }}
}

// Read is the hooked replacement for read(2)/recv-family calls.
func (h *Hooks) Read(fd int, p []byte) (int, error) {
	return h.doIO(fd, ioruntime.DirRead, true, func() (int, error) {
		return unix.Read(fd, p)
	})
}

// Write is the hooked replacement for write(2)/send-family calls.
func (h *Hooks) Write(fd int, p []byte) (int, error) {
	return h.doIO(fd, ioruntime.DirWrite, false, func() (int, error) {
		return unix.Write(fd, p)
	})
}

// Accept is the hooked replacement for accept(2).
func (h *Hooks) Accept(fd int) (int, unix.Sockaddr, error) {
	var nfd int
	var sa unix.Sockaddr
	_, err := h.doIO(fd, ioruntime.DirRead, true, func() (int, error) {
		n, addr, e := unix.Accept(fd)
		nfd, sa = n, addr
		return n, e
	})
	if err != nil {
		return -1, nil, err
	}
	return nfd, sa, nil
}

// ConnectWithTimeout is the hooked replacement for connect(2). It polls for
// WRITE readiness and verifies success via SO_ERROR on resume.
func (h *Hooks) ConnectWithTimeout(fd int, addr unix.Sockaddr) error {
	err := unix.Connect(fd, addr)
	if err == nil {
		return nil
	}
	if err != unix.EINPROGRESS {
		return err
	}
	if !Enabled() {
		return err
	}
	ctx := h.Fds.Get(fd, true)
	if ctx == nil || !ctx.IsSocket() || ctx.UserNonBlock() {
		return err
	}

	state := &callState{}
	var th *timerHandleHolder
	if ms := ctx.Timeout(false); ms > 0 {
		th = h.armTimeout(fd, ioruntime.DirWrite, ms, state)
	}
	if err := h.IO.AddEvent(fd, ioruntime.DirWrite, nil); err != nil {
		if th != nil {
			th.cancel()
		}
		return err
	}
	fiber.Yield()
	if th != nil {
		th.cancel()
	}
	if state.timedOut.Load() {
		h.recordTimeout()
		return ErrTimedOut
	}

	soErr, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if gerr != nil {
		return gerr
	}
	if soErr != 0 {
		return unix.Errno(soErr)
	}
	return nil
}

// Sleep is the hooked replacement for sleep/usleep/nanosleep: it schedules
// the current fiber to resume after d and yields, without registering any
// readiness interest.
func (h *Hooks) Sleep(d time.Duration) {
	ms := d.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	fb := fiber.Current()
	h.IO.AddTimer(ms, func() {
		if fb.State() == fiber.StateReady {
			fb.Resume()
		}
	}, false)
	fiber.Yield()
}

// Close is the hooked replacement for close(2): cancels all pending events
// on fd, drops its registry entry, then closes it for real.
func (h *Hooks) Close(fd int) error {
	h.IO.CancelAll(fd)
	h.Fds.Del(fd)
	return unix.Close(fd)
}

// FcntlSetfl records the user's O_NONBLOCK intent while keeping a socket
// actually non-blocking at the OS level.
func (h *Hooks) FcntlSetfl(fd int, flags int) error {
	ctx := h.Fds.Get(fd, true)
	userNonBlock := flags&unix.O_NONBLOCK != 0
	if ctx != nil {
		ctx.SetUserNonBlock(userNonBlock)
	}
	if ctx != nil && ctx.IsSocket() {
		flags |= unix.O_NONBLOCK
	}
	_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags)
	return err
}

// FcntlGetfl returns the OS flags with O_NONBLOCK substituted to reflect
// the user's last recorded intent rather than the system's forced setting.
func (h *Hooks) FcntlGetfl(fd int) (int, error) {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return 0, err
	}
	ctx := h.Fds.Get(fd, false)
	if ctx != nil && ctx.IsSocket() {
		if ctx.UserNonBlock() {
			flags |= unix.O_NONBLOCK
		} else {
			flags &^= unix.O_NONBLOCK
		}
	}
	return flags, nil
}

// IoctlFionbio is the hooked replacement for ioctl(fd, FIONBIO, &on): same
// intent-recording behavior as FcntlSetfl.
func (h *Hooks) IoctlFionbio(fd int, on bool) error {
	ctx := h.Fds.Get(fd, true)
	if ctx != nil {
		ctx.SetUserNonBlock(on)
	}
	return unix.IoctlSetInt(fd, uint(unix.FIONBIO), boolToInt(on))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SetsockoptTimeo updates the registry's cached timeout in addition to
// performing the real setsockopt(SO_RCVTIMEO|SO_SNDTIMEO) call.
func (h *Hooks) SetsockoptTimeo(fd int, recv bool, d time.Duration) error {
	ctx := h.Fds.Get(fd, true)
	if ctx != nil {
		ctx.SetTimeout(recv, d.Milliseconds())
	}
	tv := unix.NsecToTimeval(d.Nanoseconds())
	opt := unix.SO_SNDTIMEO
	if recv {
		opt = unix.SO_RCVTIMEO
	}
	return unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, opt, &tv)
}
