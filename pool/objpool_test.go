package pool

import "testing"

func TestSyncPoolReusesPutObjects(t *testing.T) {
	created := 0
	p := NewSyncPool(func() []int {
		created++
		return make([]int, 0, 4)
	})

	a := p.Get()
	a = append(a, 1, 2, 3)
	p.Put(a[:0])

	b := p.Get()
	if cap(b) < 3 {
		t.Fatalf("expected reused backing array with cap >= 3, got cap %d", cap(b))
	}
	if created != 1 {
		t.Fatalf("creator called %d times, want 1 (should have reused the put-back slice)", created)
	}
}
