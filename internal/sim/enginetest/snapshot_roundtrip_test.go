package enginetest

import (
	"path/filepath"
	"testing"

	"ticksim.ai/internal/persistence/snapshot"
	"ticksim.ai/internal/sim/engine"
)

func TestSnapshotRoundTrip_PreservesHistory(t *testing.T) {
	h := NewHarness(t, engine.Config{ID: "rt"})
	h.Register(1, 5, 5)
	h.Register(2, 0, 0)
	h.Run(Script(40, []engine.EntityID{1, 2}, 3))

	path := filepath.Join(t.TempDir(), "40.snap.zst")
	if err := snapshot.WriteSnapshot(path, h.Snapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if n, err := snapshot.VerifyDigests(snap); err != nil || n != 40 {
		t.Fatalf("VerifyDigests: n=%d err=%v", n, err)
	}

	for _, r := range snap.History {
		for _, p := range r.Positions {
			got := h.E.PositionAtTick(engine.EntityID(p.ID), r.Tick)
			if got.X != p.X || got.Y != p.Y {
				t.Fatalf("tick %d entity %d: snapshot=(%v,%v) engine=%+v", r.Tick, p.ID, p.X, p.Y, got)
			}
		}
	}
	for _, ent := range snap.Entities {
		got := h.E.Position(engine.EntityID(ent.ID))
		if got.X != ent.X || got.Y != ent.Y {
			t.Fatalf("live entity %d: snapshot=(%v,%v) engine=%+v", ent.ID, ent.X, ent.Y, got)
		}
	}
}

func TestSnapshotSink_PeriodicExports(t *testing.T) {
	h := NewHarness(t, engine.Config{SnapshotEveryTicks: 10})
	ch := make(chan engine.PendingSnapshot, 8)
	h.E.SetSnapshotSink(ch)
	h.Register(1, 0, 0)
	h.Run(Script(35, []engine.EntityID{1}, 11))

	var ticks []uint64
	for len(ch) > 0 {
		s := (<-ch).Build()
		if _, err := snapshot.VerifyDigests(s); err != nil {
			t.Fatalf("snapshot at %d: %v", s.Header.Tick, err)
		}
		ticks = append(ticks, s.Header.Tick)
	}
	if len(ticks) != 3 || ticks[0] != 10 || ticks[1] != 20 || ticks[2] != 30 {
		t.Fatalf("snapshot ticks: %v", ticks)
	}
}
