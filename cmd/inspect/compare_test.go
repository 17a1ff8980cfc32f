package main

import (
	"testing"

	"ticksim.ai/internal/sim/engine"
)

func drain(ch chan engine.TickLogEntry) []engine.TickLogEntry {
	var out []engine.TickLogEntry
	for len(ch) > 0 {
		out = append(out, <-ch)
	}
	return out
}

func TestCompareLog_MatchesAfterReset(t *testing.T) {
	e := engine.New(engine.Config{ID: "cmp"})
	ch := make(chan engine.TickLogEntry, 64)
	e.SetTickSink(ch)

	// First segment diverges from the final state.
	e.RegisterEntity(1, engine.Vec2{})
	e.AdvanceTick(1, engine.DirLeft)
	e.Reset()

	e.RegisterEntity(1, engine.Vec2{X: 5, Y: 5})
	e.RegisterEntity(2, engine.Vec2{})
	e.AdvanceTick(1, engine.DirUp)
	e.AdvanceTick(2, engine.DirRight)
	e.AdvanceTick(999, engine.DirDown)

	snap := e.ExportSnapshot()
	segs := compareLog(snap, drain(ch), tickRange{})
	if len(segs) != 2 {
		t.Fatalf("segments: got %d want 2", len(segs))
	}
	if segs[0].Checked != 1 || segs[0].Mismatch == nil {
		t.Fatalf("first segment should mismatch: %+v", segs[0])
	}
	if segs[1].Advances != 3 || segs[1].Checked != 3 || segs[1].Mismatch != nil {
		t.Fatalf("second segment: %+v", segs[1])
	}
}

func TestCompareLog_RangeAndOverlap(t *testing.T) {
	e := engine.New(engine.Config{})
	ch := make(chan engine.TickLogEntry, 64)
	e.SetTickSink(ch)
	e.RegisterEntity(1, engine.Vec2{})
	for i := 0; i < 4; i++ {
		e.AdvanceTick(1, engine.DirUp)
	}
	snap := e.ExportSnapshot()
	// Ticks past the snapshot are not compared.
	e.AdvanceTick(1, engine.DirDown)

	segs := compareLog(snap, drain(ch), tickRange{From: 1, To: 2})
	if len(segs) != 1 || segs[0].Advances != 5 || segs[0].Checked != 2 || segs[0].Mismatch != nil {
		t.Fatalf("segments: %+v", segs)
	}
}

func TestCompareRecord_DetectsTamperedDigest(t *testing.T) {
	e := engine.New(engine.Config{})
	ch := make(chan engine.TickLogEntry, 8)
	e.SetTickSink(ch)
	e.RegisterEntity(1, engine.Vec2{})
	e.AdvanceTick(1, engine.DirUp)
	snap := e.ExportSnapshot()

	entries := drain(ch)
	adv := entries[len(entries)-1]
	adv.Digest = "00"
	if err := compareRecord(snap.History[0], adv); err == nil {
		t.Fatalf("expected digest mismatch")
	}
}
