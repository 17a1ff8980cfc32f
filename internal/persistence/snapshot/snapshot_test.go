package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ticksim.ai/internal/sim/engine/io/digestcodec"
)

func sampleSnapshot() SnapshotV1 {
	rec0 := TickRecordV1{Tick: 0, Entity: 1, Input: 1, Positions: []EntityV1{{ID: 1, X: 0, Y: 1}, {ID: 2, X: 3, Y: 4}}}
	rec1 := TickRecordV1{Tick: 1, Entity: 2, Input: 4, Positions: []EntityV1{{ID: 1, X: 0, Y: 1}, {ID: 2, X: 1, Y: 0}}}
	rec0.Digest = rec0.ComputeDigest()
	rec1.Digest = rec1.ComputeDigest()
	return SnapshotV1{
		Header:   Header{Version: Version, EngineID: "e1", Tick: 2},
		Mode:     "multi",
		MoveMode: "set",
		Entities: []EntityV1{{ID: 1, X: 0, Y: 1}, {ID: 2, X: 1, Y: 0}},
		History:  []TickRecordV1{rec0, rec1},
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "2.snap.zst")
	in := sampleSnapshot()
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if out.Header != in.Header {
		t.Fatalf("header: got %+v want %+v", out.Header, in.Header)
	}
	if len(out.History) != 2 || out.History[1].Positions[1].X != 1 {
		t.Fatalf("history not preserved: %+v", out.History)
	}
	n, err := VerifyDigests(out)
	if err != nil || n != 2 {
		t.Fatalf("VerifyDigests: n=%d err=%v", n, err)
	}
}

func TestReadSnapshot_NotZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	if err := os.WriteFile(path, []byte("plain text\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected error for non-zstd file")
	}
}

func TestVerifyDigests_DetectsTampering(t *testing.T) {
	snap := sampleSnapshot()
	snap.History[1].Positions[0].Y = 2
	_, err := VerifyDigests(snap)
	if err == nil || !strings.Contains(err.Error(), "tick 1") {
		t.Fatalf("expected digest mismatch at tick 1, got %v", err)
	}

	snap = sampleSnapshot()
	snap.Header.Tick = 3
	if _, err := VerifyDigests(snap); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestComputeDigest_MatchesCodec(t *testing.T) {
	r := TickRecordV1{Tick: 9, Positions: []EntityV1{{ID: 5, X: -1, Y: 0}}}
	want := digestcodec.TickDigest(9, []digestcodec.Entry{{ID: 5, X: -1, Y: 0}})
	if got := r.ComputeDigest(); got != want {
		t.Fatalf("ComputeDigest: got %s want %s", got, want)
	}
}
