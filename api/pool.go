// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Pooling contracts for the fiber runtime's two recurring allocation
// shapes: size-classed byte buffers (pool.BufferPool, for callers sizing
// buffers for hook.Hooks.Read/Write; nothing inside this module uses it)
// and typed object reuse (pool.SyncPool, which ioruntime uses to reuse its
// readiness-event slices).

package api

// BytePool provides reusable []byte buffers, size-classed by power of two.
type BytePool interface {
	// Acquire returns a slice of at least n bytes from the smallest size
	// class that fits.
	Acquire(n int) []byte

	// Release returns buf to the pool for its size class. buf must have
	// come from Acquire on the same pool.
	Release(buf []byte)
}

// ObjectPool provides generic reuse of same-shaped objects (such as
// ioruntime's readiness-event slices) across goroutines.
type ObjectPool[T any] interface {
	// Get returns a pooled instance, or a newly constructed one if empty.
	Get() T

	// Put returns obj for reuse. Callers must not touch obj afterward.
	Put(obj T)
}
