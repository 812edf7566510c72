// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package pool

import (
	"github.com/momentics/hioload-fiber/api"
)

// BufferPool buckets []byte buffers by power-of-two size classes on top of
// SyncPool, the way the pack's other size-classed allocators avoid returning
// an oversized buffer to a small request.
type BufferPool struct {
	classes []*SyncPool[[]byte]
	minLog  int
}

// NewBufferPool builds size classes from 2^minLog up to 2^maxLog bytes,
// inclusive.
func NewBufferPool(minLog, maxLog int) *BufferPool {
	bp := &BufferPool{minLog: minLog}
	for l := minLog; l <= maxLog; l++ {
		size := 1 << l
		bp.classes = append(bp.classes, NewSyncPool(func() []byte { return make([]byte, size) }))
	}
	return bp
}

func (bp *BufferPool) classFor(n int) int {
	for i := range bp.classes {
		if (1 << (bp.minLog + i)) >= n {
			return i
		}
	}
	return -1
}

// Acquire returns a slice of at least n bytes, satisfying api.BytePool. A
// request larger than the top size class is allocated directly and never
// pooled.
func (bp *BufferPool) Acquire(n int) []byte {
	idx := bp.classFor(n)
	if idx < 0 {
		return make([]byte, n)
	}
	buf := bp.classes[idx].Get()
	return buf[:n]
}

// Release returns buf to the size class matching its capacity. A buffer
// whose capacity does not match any class boundary (for example one
// returned for an over-sized request) is dropped instead of pooled.
func (bp *BufferPool) Release(buf []byte) {
	c := cap(buf)
	for i := range bp.classes {
		if 1<<(bp.minLog+i) == c {
			bp.classes[i].Put(buf[:c])
			return
		}
	}
}

var _ api.BytePool = (*BufferPool)(nil)
