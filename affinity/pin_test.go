package affinity

import "testing"

func TestUnpinAndGetBeforePinReturnErrNotPinned(t *testing.T) {
	var p Pinner
	if _, _, err := p.Get(); err != ErrNotPinned {
		t.Fatalf("Get() err = %v, want ErrNotPinned", err)
	}
	if err := p.Unpin(); err != ErrNotPinned {
		t.Fatalf("Unpin() err = %v, want ErrNotPinned", err)
	}
}

func TestPinRecordsStateOnSuccess(t *testing.T) {
	var p Pinner
	if err := p.Pin(0, -1); err != nil {
		t.Skipf("SetAffinity unsupported in this environment: %v", err)
	}
	defer p.Unpin()

	cpu, numa, err := p.Get()
	if err != nil {
		t.Fatalf("Get() after Pin: %v", err)
	}
	if cpu != 0 || numa != -1 {
		t.Fatalf("Get() = (%d, %d), want (0, -1)", cpu, numa)
	}
}
