package engine

import (
	"path/filepath"
	"testing"

	"ticksim.ai/internal/persistence/snapshot"
)

func TestExportSnapshot_MatchesLedger(t *testing.T) {
	e := New(Config{ID: "exp", MoveMode: MoveAccumulate})
	e.RegisterEntity(2, Vec2{X: 1, Y: 1})
	e.RegisterEntity(1, Vec2{})
	e.AdvanceTick(1, DirUp)
	e.AdvanceTick(2, DirRight)

	s := e.ExportSnapshot()
	if s.Header.Version != snapshot.Version || s.Header.Tick != 2 || s.Header.EngineID != "exp" {
		t.Fatalf("header: %+v", s.Header)
	}
	if s.MoveMode != "accumulate" || s.Mode != "multi" {
		t.Fatalf("modes: %s %s", s.Mode, s.MoveMode)
	}
	if len(s.Entities) != 2 || s.Entities[0].ID != 1 || s.Entities[1].X != 2 {
		t.Fatalf("entities: %+v", s.Entities)
	}
	for i, r := range s.History {
		if r.Digest != e.DebugStateDigest(uint64(i)) {
			t.Fatalf("record %d digest mismatch", i)
		}
	}
	if s.History[1].Input != uint8(DirRight) || s.History[1].Entity != 2 {
		t.Fatalf("record 1: %+v", s.History[1])
	}

	path := filepath.Join(t.TempDir(), "2.snap.zst")
	if err := snapshot.WriteSnapshot(path, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n, err := snapshot.VerifyDigests(back); err != nil || n != 2 {
		t.Fatalf("verify: n=%d err=%v", n, err)
	}
}

func TestDebugStateDigest_OutOfRange(t *testing.T) {
	if d := newTestEngine().DebugStateDigest(0); d != "" {
		t.Fatalf("expected empty digest, got %q", d)
	}
}
