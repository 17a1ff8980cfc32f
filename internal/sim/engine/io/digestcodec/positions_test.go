package digestcodec

import "testing"

func TestTickDigest_OrderIndependent(t *testing.T) {
	a := []Entry{{ID: 1, X: 0, Y: 1}, {ID: 7, X: -1, Y: 0}, {ID: 3, X: 5, Y: 5}}
	b := []Entry{{ID: 3, X: 5, Y: 5}, {ID: 1, X: 0, Y: 1}, {ID: 7, X: -1, Y: 0}}
	if TickDigest(4, a) != TickDigest(4, b) {
		t.Fatalf("digest depends on entry order")
	}
	if a[0].ID != 1 || a[1].ID != 7 {
		t.Fatalf("input slice was reordered: %+v", a)
	}
}

func TestTickDigest_SensitiveToTickAndValues(t *testing.T) {
	base := []Entry{{ID: 1, X: 0, Y: 1}}
	d := TickDigest(0, base)
	if d == TickDigest(1, base) {
		t.Fatalf("digest ignores tick")
	}
	if d == TickDigest(0, []Entry{{ID: 1, X: 1, Y: 0}}) {
		t.Fatalf("digest ignores position")
	}
	if d == TickDigest(0, []Entry{{ID: 2, X: 0, Y: 1}}) {
		t.Fatalf("digest ignores entity id")
	}
	if len(d) != 64 {
		t.Fatalf("digest length: got %d want 64", len(d))
	}
}

func TestTickDigest_EmptyMapping(t *testing.T) {
	if TickDigest(0, nil) != TickDigest(0, []Entry{}) {
		t.Fatalf("nil and empty entries should hash the same")
	}
}
