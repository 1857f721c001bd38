package source

import "testing"

func TestInternerRoundTrip(t *testing.T) {
	in := NewInterner()

	a := in.Intern("top")
	b := in.Intern("sub")
	if a == b {
		t.Fatalf("distinct strings interned to the same ID")
	}
	if again := in.Intern("top"); again != a {
		t.Fatalf("re-interning returned %v, want %v", again, a)
	}
	if got := in.MustLookup(b); got != "sub" {
		t.Fatalf("lookup returned %q", got)
	}
	if in.Len() != 3 { // including NoStringID
		t.Fatalf("len = %d", in.Len())
	}
}

func TestInternerNoStringID(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(""); id != NoStringID {
		t.Fatalf("empty string interned to %v", id)
	}
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID lookup = %q, %v", s, ok)
	}
}
