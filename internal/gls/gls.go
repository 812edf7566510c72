// File: internal/gls/gls.go
// Author: momentics <momentics@gmail.com>
//
// Goroutine-local storage. The fiber/scheduler/hook layers need the
// thread-local "current fiber" / "current scheduler" / "hook enabled" slots
// the source keeps per OS thread. Go does not expose a thread-local storage
// primitive, and goroutines are the unit that actually stays put for the
// lifetime of one fiber's execution (each run of a fiber's entry owns
// exactly one goroutine, baton-passed with whoever resumes it), so a registry
// keyed by goroutine id is the closest equivalent and is what every
// goroutine-local-storage library in the ecosystem does.
package gls

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var (
	mu    sync.RWMutex
	slots = make(map[int64]map[any]any)
)

// ID returns the identifier of the calling goroutine, parsed out of the
// runtime's debug stack trace header ("goroutine 123 [running]:"). This is
// the standard workaround used when true goroutine-local storage is needed.
func ID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if idx := bytes.IndexByte(b, ' '); idx >= 0 {
		b = b[:idx]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}

// Set stores val under key for the calling goroutine.
func Set(key, val any) {
	id := ID()
	mu.Lock()
	defer mu.Unlock()
	m := slots[id]
	if m == nil {
		m = make(map[any]any, 4)
		slots[id] = m
	}
	m[key] = val
}

// Get retrieves a value previously Set by the calling goroutine.
func Get(key any) (any, bool) {
	id := ID()
	mu.RLock()
	defer mu.RUnlock()
	m := slots[id]
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Clear drops every slot owned by the calling goroutine. Call this right
// before a goroutine that was Set-tagged exits, or its map entry leaks.
func Clear() {
	id := ID()
	mu.Lock()
	defer mu.Unlock()
	delete(slots, id)
}
