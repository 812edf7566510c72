// File: ioruntime/poller_impl.go
// Author: momentics <momentics@gmail.com>
//
// Adapts reactor.EventReactor to the poller contract this package's
// readiness loop drives. The reactor package itself is platform-split
// (epoll on Linux, IOCP on Windows, an error stub elsewhere); this
// adapter is platform-neutral and just forwards to whichever
// implementation reactor.NewReactor selects.

package ioruntime

import (
	"github.com/momentics/hioload-fiber/pool"
	"github.com/momentics/hioload-fiber/reactor"
)

// reactorPoller adapts a single reactor.EventReactor, shared across every
// scheduler worker, to the poller contract. It holds no raw-event buffer
// of its own: every worker's idle loop calls wait() concurrently on its
// own OS thread, so the raw buffer must be local to each call, not a
// struct field the callers would race on.
type reactorPoller struct {
	r    reactor.EventReactor
	outs *pool.SyncPool[[]readyEvent]
}

func newPoller() (poller, error) {
	r, err := reactor.NewReactor()
	if err != nil {
		return nil, err
	}
	return &reactorPoller{
		r:    r,
		outs: pool.NewSyncPool(func() []readyEvent { return make([]readyEvent, 0, 256) }),
	}, nil
}

func toReactorDir(dir Direction) reactor.Dir {
	var d reactor.Dir
	if dir&DirRead != 0 {
		d |= reactor.DirRead
	}
	if dir&DirWrite != 0 {
		d |= reactor.DirWrite
	}
	return d
}

func (p *reactorPoller) register(fd int, dir Direction) error {
	return p.r.Register(uintptr(fd), toReactorDir(dir), uintptr(fd))
}

func (p *reactorPoller) modify(fd int, dir Direction) error {
	return p.r.Modify(uintptr(fd), toReactorDir(dir), uintptr(fd))
}

func (p *reactorPoller) unregister(fd int) error {
	return p.r.Unregister(uintptr(fd))
}

func (p *reactorPoller) wait(timeoutMs int64) ([]readyEvent, error) {
	var buf [256]reactor.Event
	n, err := p.r.Wait(buf[:], int(timeoutMs))
	if err != nil {
		return nil, err
	}
	out := p.outs.Get()[:0]
	for i := 0; i < n; i++ {
		ev := buf[i]
		out = append(out, readyEvent{
			fd:    int(ev.Fd),
			read:  ev.Read,
			write: ev.Write,
			err:   ev.Err,
			hup:   ev.Hup,
			wake:  ev.Wake,
		})
	}
	return out, nil
}

func (p *reactorPoller) release(events []readyEvent) {
	if events != nil {
		p.outs.Put(events)
	}
}

func (p *reactorPoller) wake() { p.r.Wake() }

func (p *reactorPoller) close() error { return p.r.Close() }
