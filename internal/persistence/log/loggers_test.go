package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ticksim.ai/internal/sim/engine"
)

func TestTickLogger_WriteRead(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	fixed := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	l.w.now = func() time.Time { return fixed }

	entries := []engine.TickLogEntry{
		{Kind: engine.KindRegister, Tick: 0, Entity: 1, Known: true, Pos: engine.Vec2{X: 5, Y: 5}},
		{Kind: engine.KindAdvance, Tick: 0, Entity: 1, Input: engine.DirUp, Known: true, Pos: engine.Vec2{X: 0, Y: 1}, Digest: "abc",
			Positions: []engine.EntityPos{{ID: 1, X: 0, Y: 1}}},
	}
	for _, e := range entries {
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := filepath.Join(dir, "events", "events-2026-03-01-10.jsonl.zst")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}
	got, err := ReadTickLog(path)
	if err != nil {
		t.Fatalf("ReadTickLog: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries: got %d want 2", len(got))
	}
	if got[1].Input != engine.DirUp || got[1].Digest != "abc" || got[1].Positions[0].Y != 1 {
		t.Fatalf("advance entry: %+v", got[1])
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "events")
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "events-*.jsonl.zst"))
	if len(matches) != 2 {
		t.Fatalf("rotated files: got %v", matches)
	}
}

func TestJSONLZstdWriter_AppendAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		l := NewTickLogger(dir)
		l.w.now = func() time.Time { return fixed }
		if err := l.WriteTick(engine.TickLogEntry{Kind: engine.KindReset}); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	got, err := ReadTickLog(filepath.Join(dir, "events", "events-2026-03-01-10.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadTickLog: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries across two frames: got %d want 2", len(got))
	}
}
