package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"ticksim.ai/internal/sim/engine/io/digestcodec"
)

const Version = 1

type Header struct {
	Version  int    `json:"version"`
	EngineID string `json:"engine_id"`
	Tick     uint64 `json:"tick"`
}

// SnapshotV1 is a read-only export of one engine: the live position mapping
// plus every tick record in the history ledger. It is written for offline
// inspection and is never loaded back into a running engine.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Mode               string `json:"mode"`
	MoveMode           string `json:"move_mode"`
	SnapshotEveryTicks int    `json:"snapshot_every_ticks,omitempty"`

	Entities []EntityV1     `json:"entities"`
	History  []TickRecordV1 `json:"history"`
}

type EntityV1 struct {
	ID uint32  `json:"id"`
	X  float32 `json:"x"`
	Y  float32 `json:"y"`
}

type TickRecordV1 struct {
	Tick      uint64     `json:"tick"`
	Entity    uint32     `json:"entity_id"`
	Input     uint8      `json:"input"`
	Digest    string     `json:"digest"`
	Positions []EntityV1 `json:"positions"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is duplicated inside the gob body.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ComputeDigest recomputes the state digest of one recorded tick.
func (r TickRecordV1) ComputeDigest() string {
	entries := make([]digestcodec.Entry, 0, len(r.Positions))
	for _, p := range r.Positions {
		entries = append(entries, digestcodec.Entry{ID: p.ID, X: p.X, Y: p.Y})
	}
	return digestcodec.TickDigest(r.Tick, entries)
}

// VerifyDigests checks ledger ordering and every stored record digest.
// It returns the number of records checked.
func VerifyDigests(snap SnapshotV1) (int, error) {
	if uint64(len(snap.History)) != snap.Header.Tick {
		return 0, fmt.Errorf("history length %d does not match tick %d", len(snap.History), snap.Header.Tick)
	}
	for i, r := range snap.History {
		if r.Tick != uint64(i) {
			return i, fmt.Errorf("record %d carries tick %d", i, r.Tick)
		}
		if got := r.ComputeDigest(); got != r.Digest {
			return i, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", r.Tick, got, r.Digest)
		}
	}
	return len(snap.History), nil
}
