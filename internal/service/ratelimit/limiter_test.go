package ratelimit

import "testing"

func TestAllowWithinCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		if !l.Allow("quotes", 5, 0) {
			t.Fatalf("call %d: expected allow", i)
		}
	}
	if l.Allow("quotes", 5, 0) {
		t.Fatalf("expected deny after bucket drained")
	}
}

func TestKeysIsolated(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		l.Allow("quotes", 3, 0)
	}
	if l.Allow("quotes", 3, 0) {
		t.Fatalf("quotes bucket should be empty")
	}
	if !l.Allow("news", 3, 0) {
		t.Fatalf("news bucket must be unaffected")
	}
}
