package ids

import "testing"

func TestNewIsValidAndUnique(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	if a == b {
		t.Fatalf("New() returned %q twice", a)
	}
	if !Valid(a) || !Valid(b) {
		t.Fatalf("Valid(New()) = false")
	}
	if Valid("not-an-id") || Valid("") {
		t.Fatal("Valid() accepted garbage")
	}
}
