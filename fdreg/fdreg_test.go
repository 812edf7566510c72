package fdreg

import "testing"

func TestGetAutoCreateAndDel(t *testing.T) {
	r := New()
	if c := r.Get(5, false); c != nil {
		t.Fatal("Get with autoCreate=false should not install an entry")
	}
	c := r.Get(5, true)
	if c == nil {
		t.Fatal("Get with autoCreate=true should install an entry")
	}
	if got := r.Get(5, false); got != c {
		t.Fatal("subsequent Get should return the same Ctx")
	}
	r.Del(5)
	if r.Get(5, false) != nil {
		t.Fatal("Del should drop the entry")
	}
}

func TestTimeoutCache(t *testing.T) {
	c := &Ctx{}
	c.SetTimeout(true, 1500)
	c.SetTimeout(false, 2500)
	if got := c.Timeout(true); got != 1500 {
		t.Fatalf("recv timeout = %d, want 1500", got)
	}
	if got := c.Timeout(false); got != 2500 {
		t.Fatalf("send timeout = %d, want 2500", got)
	}
}

func TestUserNonBlockIndependentOfSystem(t *testing.T) {
	c := &Ctx{}
	c.SetUserNonBlock(true)
	if !c.UserNonBlock() {
		t.Fatal("UserNonBlock should reflect the most recent SetUserNonBlock")
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default() should return the same registry on every call")
	}
}
