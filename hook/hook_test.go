//go:build linux
// +build linux

package hook

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-fiber/control"
	"github.com/momentics/hioload-fiber/fiber"
	"github.com/momentics/hioload-fiber/ioruntime"
)

func newTestHooks(t *testing.T) *Hooks {
	io, err := ioruntime.New("hook-test", 2, false)
	if err != nil {
		t.Skipf("ioruntime unsupported: %v", err)
	}
	io.Start()
	t.Cleanup(io.Stop)
	return New(io)
}

func socketPair(t *testing.T) (int, int) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	return fds[0], fds[1]
}

func TestReadBlocksThenUnblocksOnWrite(t *testing.T) {
	h := newTestHooks(t)
	a, b := socketPair(t)
	defer unix.Close(a)
	defer unix.Close(b)

	result := make(chan []byte, 1)
	fb := fiber.New(func() {
		buf := make([]byte, 16)
		n, err := h.Read(a, buf)
		if err != nil {
			result <- nil
			return
		}
		result <- buf[:n]
	}, 0, false)

	go fb.Resume()

	time.Sleep(10 * time.Millisecond)
	if _, err := unix.Write(b, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-result:
		if string(got) != "hello" {
			t.Fatalf("got %q, want hello", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hooked Read never returned")
	}
}

func TestReadTimesOut(t *testing.T) {
	h := newTestHooks(t)
	a, b := socketPair(t)
	defer unix.Close(a)
	defer unix.Close(b)

	if err := h.SetsockoptTimeo(a, true, 30*time.Millisecond); err != nil {
		t.Fatalf("SetsockoptTimeo: %v", err)
	}

	result := make(chan error, 1)
	fb := fiber.New(func() {
		buf := make([]byte, 16)
		_, err := h.Read(a, buf)
		result <- err
	}, 0, false)

	go fb.Resume()

	select {
	case err := <-result:
		if err != ErrTimedOut {
			t.Fatalf("err = %v, want ErrTimedOut", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hooked Read never timed out")
	}
}

func TestDisabledHookPassesThrough(t *testing.T) {
	h := newTestHooks(t)
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	Disable()
	defer Enable()

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 1)
	n, err := h.Read(int(r.Fd()), buf)
	if err != nil || n != 1 {
		t.Fatalf("Read with hooking disabled: n=%d err=%v", n, err)
	}
}

func TestTimeoutIsCountedInMetrics(t *testing.T) {
	h := newTestHooks(t)
	metrics := control.NewMetricsRegistry()
	h.SetControl(nil, metrics)

	a, b := socketPair(t)
	defer unix.Close(a)
	defer unix.Close(b)

	if err := h.SetsockoptTimeo(a, true, 20*time.Millisecond); err != nil {
		t.Fatalf("SetsockoptTimeo: %v", err)
	}

	result := make(chan error, 1)
	fb := fiber.New(func() {
		buf := make([]byte, 16)
		_, err := h.Read(a, buf)
		result <- err
	}, 0, false)
	go fb.Resume()

	select {
	case err := <-result:
		if err != ErrTimedOut {
			t.Fatalf("err = %v, want ErrTimedOut", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hooked Read never timed out")
	}

	if got, _ := metrics.GetSnapshot()["hook.timeouts"].(int64); got < 1 {
		t.Fatalf("hook.timeouts = %v, want >= 1", got)
	}
}
