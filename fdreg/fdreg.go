// File: fdreg/fdreg.go
// Author: momentics <momentics@gmail.com>
//
// Per-process descriptor registry. The hook layer consults this on every
// covered I/O call to decide whether a descriptor is worth intercepting at
// all (sockets only) and what timeout to apply; it is the Go counterpart of
// the source's fdManager singleton, reshaped as an explicit, testable type
// with a package-level default instance for call sites that do not carry
// one through.

package fdreg

import "sync"

// defaultRegistry is built on the first Default call.
var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Ctx is the cached metadata for one descriptor.
type Ctx struct {
	mu sync.Mutex

	isSocket bool

	// systemNonBlock is true if the descriptor is kept non-blocking at the
	// OS level regardless of what the user asked for, so the hook layer can
	// retry on EAGAIN instead of actually blocking.
	systemNonBlock bool

	// userNonBlock is the O_NONBLOCK/FIONBIO intent the user most recently
	// requested, which may differ from systemNonBlock for a socket.
	userNonBlock bool

	recvTimeoutMs int64
	sendTimeoutMs int64
}

// IsSocket reports whether this descriptor was a socket when installed.
func (c *Ctx) IsSocket() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSocket
}

// SystemNonBlock reports whether the descriptor is actually non-blocking at
// the OS level.
func (c *Ctx) SystemNonBlock() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.systemNonBlock
}

// UserNonBlock reports the user's most recently requested O_NONBLOCK
// intent, independent of the system setting the hook layer enforces.
func (c *Ctx) UserNonBlock() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userNonBlock
}

// SetUserNonBlock records the user's O_NONBLOCK/FIONBIO intent.
func (c *Ctx) SetUserNonBlock(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userNonBlock = v
}

// Timeout returns the cached receive (recv=true) or send (recv=false)
// timeout in milliseconds; 0 means no timeout.
func (c *Ctx) Timeout(recv bool) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if recv {
		return c.recvTimeoutMs
	}
	return c.sendTimeoutMs
}

// SetTimeout updates the cached receive or send timeout, mirroring a
// setsockopt(SO_RCVTIMEO|SO_SNDTIMEO) call.
func (c *Ctx) SetTimeout(recv bool, ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if recv {
		c.recvTimeoutMs = ms
	} else {
		c.sendTimeoutMs = ms
	}
}

// Registry maps descriptors to their cached Ctx.
type Registry struct {
	mu      sync.RWMutex
	entries map[int]*Ctx

	defaultRecvTimeoutMs int64
	defaultSendTimeoutMs int64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[int]*Ctx)}
}

// SetDefaultTimeouts sets the recv/send timeout (milliseconds, 0 means none)
// newly-installed Ctx entries start with, so a deployment's
// control.ConfigStore defaults ("fdreg.default_recv_timeout_ms" and
// "fdreg.default_send_timeout_ms") apply to sockets the hook layer has not
// yet seen an explicit SetsockoptTimeo call for.
func (r *Registry) SetDefaultTimeouts(recvMs, sendMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultRecvTimeoutMs = recvMs
	r.defaultSendTimeoutMs = sendMs
}

// Get returns the Ctx for fd. If autoCreate is true and no entry exists,
// one is installed after probing the descriptor's file type; a socket is
// forced non-blocking at the OS level beneath the caller's back.
func (r *Registry) Get(fd int, autoCreate bool) *Ctx {
	r.mu.RLock()
	c, ok := r.entries[fd]
	r.mu.RUnlock()
	if ok {
		return c
	}
	if !autoCreate {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.entries[fd]; ok {
		return c
	}
	c = &Ctx{recvTimeoutMs: r.defaultRecvTimeoutMs, sendTimeoutMs: r.defaultSendTimeoutMs}
	probeAndInstall(fd, c)
	r.entries[fd] = c
	return c
}

// Del drops fd's entry.
func (r *Registry) Del(fd int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, fd)
}

// Default returns the process-global registry the hook layer uses,
// creating it on the first call.
func Default() *Registry {
	defaultOnce.Do(func() { defaultRegistry = New() })
	return defaultRegistry
}
