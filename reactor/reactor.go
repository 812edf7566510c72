// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral event reactor interface for cross-platform IO
// multiplexing. Extended with Modify/Unregister/Wake/timeout control so
// ioruntime's IOManager can arm one direction at a time and bound each
// wait by the timer set's next deadline.

package reactor

// Dir is a bitmask of readiness directions a descriptor can be armed for.
type Dir uint32

const (
	DirRead Dir = 1 << iota
	DirWrite
)

// EventReactor defines basic reactor operations across OS platforms.
type EventReactor interface {
	// Register arms dir on fd (epoll) or HANDLE (Windows) for the first
	// time. The Windows backend returns userData on the resulting Event;
	// the Linux backend ignores it and reports the descriptor in Event.Fd.
	Register(fd uintptr, dir Dir, userData uintptr) error

	// Modify rearms fd with a new direction mask, replacing the previous
	// one without dropping registration.
	Modify(fd uintptr, dir Dir, userData uintptr) error

	// Unregister removes fd from the reactor entirely.
	Unregister(fd uintptr) error

	// Wait blocks until events are available or timeoutMs elapses
	// (timeoutMs < 0 blocks indefinitely), and writes into the output
	// slice. Returns the number of events written.
	Wait(events []Event, timeoutMs int) (n int, err error)

	// Wake unblocks a concurrent Wait call from another goroutine.
	Wake()

	// Close cleans up resources (handle/epfd).
	Close() error
}

// Event contains event information returned by Wait.
type Event struct {
	Fd       uintptr
	UserData uintptr
	Read     bool
	Write    bool
	Err      bool
	Hup      bool
	Wake     bool // true if this event is the internal wake notification
}
