// File: thread/semaphore.go
// Author: momentics <momentics@gmail.com>
//
// Counting semaphore. Spawn and Join do not use it; they signal start-up
// and exit over channels of their own. Built on a buffered channel, the idiomatic Go substitute for
// a condition-variable-backed semaphore when the count is small and there
// is no need for weighted acquisition.

package thread

// Semaphore is a counting semaphore with an initial count of zero.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore returns a semaphore that can buffer up to capacity pending
// signals before a Post blocks.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 1
	}
	return &Semaphore{ch: make(chan struct{}, capacity)}
}

// Post increments the semaphore's count, waking one waiter if any is
// blocked in Wait.
func (s *Semaphore) Post() { s.ch <- struct{}{} }

// Wait blocks until the semaphore's count is positive, then decrements it.
func (s *Semaphore) Wait() { <-s.ch }

// TryWait attempts a non-blocking Wait, reporting whether it succeeded.
func (s *Semaphore) TryWait() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
