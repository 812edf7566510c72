// File: timer/timer.go
// Author: momentics <momentics@gmail.com>
//
// Ordered timer set keyed by absolute deadline, backed by container/heap the
// way the pack's event-loop timer queue is (a min-heap of {deadline, task}
// pairs), guarded by a reader/writer lock instead of the loop's single
// goroutine affinity since this set is shared across worker threads.

package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Callback is the action run when a timer fires.
type Callback func()

// Manager is a reader/writer-lock-guarded min-heap of timers ordered by
// absolute deadline, with stable identity-based cancellation.
type Manager struct {
	mu       sync.RWMutex
	heap     entryHeap
	byHandle map[uint64]*entry
	nextID   uint64

	tickled bool

	lastProbe time.Time

	// onFrontInserted is invoked, still holding mu, whenever an insertion
	// becomes the new earliest deadline and no tickle is outstanding. The
	// base Manager has no demultiplexer to wake; IOManager overrides this.
	onFrontInserted func()
}

// New returns an empty Manager. onFrontInserted may be nil.
func New(onFrontInserted func()) *Manager {
	if onFrontInserted == nil {
		onFrontInserted = func() {}
	}
	return &Manager{
		byHandle:        make(map[uint64]*entry),
		lastProbe:       time.Now(),
		onFrontInserted: onFrontInserted,
	}
}

// entry is one scheduled timer. Its handle is the stable tie-break used by
// the heap and the key of the cancellation map.
type entry struct {
	handle    uint64
	deadline  time.Time
	intervalM int64 // milliseconds; the delay last set by add or Reset, kept for one-shot timers too
	recurring bool
	cb        Callback
	index     int // position in the heap slice, maintained by heap.Interface
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].handle < h[j].handle
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Handle identifies a scheduled timer for Cancel/Refresh/Reset.
type Handle struct {
	m *Manager
	e *entry
}

// AddTimer schedules cb to run after ms milliseconds (and every ms
// thereafter if recurring).
func (m *Manager) AddTimer(ms int64, cb Callback, recurring bool) Handle {
	return m.add(ms, cb, recurring)
}

// AddConditionTimer schedules a callback that first attempts to upgrade a
// weak witness before running cb; if upgrade fails the firing is a no-op.
// witness plays the role of a weak_ptr<T>::lock(): it must itself detect
// whether the object it refers to is still alive and return false if not.
func (m *Manager) AddConditionTimer(ms int64, cb Callback, witness func() bool, recurring bool) Handle {
	wrapped := func() {
		if witness == nil || witness() {
			cb()
		}
	}
	return m.add(ms, wrapped, recurring)
}

func (m *Manager) add(ms int64, cb Callback, recurring bool) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	e := &entry{
		handle:    m.nextID,
		deadline:  time.Now().Add(time.Duration(ms) * time.Millisecond),
		intervalM: ms,
		recurring: recurring,
		cb:        cb,
	}
	heap.Push(&m.heap, e)
	m.byHandle[e.handle] = e

	if m.heap[0] == e && !m.tickled {
		m.tickled = true
		m.onFrontInserted()
	}
	return Handle{m: m, e: e}
}

// Cancel removes the timer. Returns false if it was already cancelled or
// had already fired and was not recurring.
func (h Handle) Cancel() bool {
	m, e := h.m, h.e
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHandle[e.handle]; !ok {
		return false
	}
	e.cb = nil
	delete(m.byHandle, e.handle)
	if e.index >= 0 {
		heap.Remove(&m.heap, e.index)
	}
	return true
}

// Refresh re-seats the timer at now + its configured interval, preserving
// whether it is recurring.
func (h Handle) Refresh() {
	m, e := h.m, h.e
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHandle[e.handle]; !ok {
		return
	}
	if e.index >= 0 {
		heap.Remove(&m.heap, e.index)
	}
	e.deadline = time.Now().Add(time.Duration(e.intervalM) * time.Millisecond)
	heap.Push(&m.heap, e)
	if m.heap[0] == e && !m.tickled {
		m.tickled = true
		m.onFrontInserted()
	}
}

// Reset changes the timer's interval. If fromNow, the new deadline is
// now+ms; otherwise it is (previous deadline - previous interval) + ms,
// preserving phase relative to the original schedule.
func (h Handle) Reset(ms int64, fromNow bool) {
	m, e := h.m, h.e
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHandle[e.handle]; !ok {
		return
	}
	if e.index >= 0 {
		heap.Remove(&m.heap, e.index)
	}
	var base time.Time
	if fromNow {
		base = time.Now()
	} else {
		base = e.deadline.Add(-time.Duration(e.intervalM) * time.Millisecond)
	}
	e.intervalM = ms
	e.deadline = base.Add(time.Duration(ms) * time.Millisecond)
	heap.Push(&m.heap, e)
	if m.heap[0] == e && !m.tickled {
		m.tickled = true
		m.onFrontInserted()
	}
}

// NextTimeout returns the number of milliseconds until the earliest timer
// fires: 0 if already due, and the special value TimeoutInfinite if the set
// is empty. Clears the tickled flag.
func (m *Manager) NextTimeout() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickled = false
	if len(m.heap) == 0 {
		return TimeoutInfinite
	}
	d := time.Until(m.heap[0].deadline)
	if d <= 0 {
		return 0
	}
	return d.Milliseconds()
}

// TimeoutInfinite is returned by NextTimeout when no timer is pending.
const TimeoutInfinite = int64(^uint64(0) >> 1)

// HasTimer reports whether any timer is currently scheduled.
func (m *Manager) HasTimer() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.heap) > 0
}

// DrainExpired pops every timer whose deadline has passed (or, if a clock
// rollover was just detected, every timer regardless of deadline) and
// appends their callables to out. Recurring timers are reinserted with a
// fresh now+interval deadline. Returns the possibly-grown slice.
func (m *Manager) DrainExpired(out []Callback) []Callback {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	rollover := now.Before(m.lastProbe.Add(-time.Hour))
	m.lastProbe = now

	for len(m.heap) > 0 {
		e := m.heap[0]
		if !rollover && e.deadline.After(now) {
			break
		}
		heap.Pop(&m.heap)
		delete(m.byHandle, e.handle)
		if e.cb == nil {
			continue
		}
		out = append(out, e.cb)
		if e.recurring {
			e.deadline = now.Add(time.Duration(e.intervalM) * time.Millisecond)
			m.nextID++
			e.handle = m.nextID
			heap.Push(&m.heap, e)
			m.byHandle[e.handle] = e
		}
	}
	return out
}
