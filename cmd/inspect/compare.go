package main

import (
	"fmt"

	"ticksim.ai/internal/persistence/snapshot"
	"ticksim.ai/internal/sim/engine"
)

type tickRange struct {
	From uint64
	To   uint64 // 0 means unbounded
}

func (r tickRange) contains(t uint64) bool {
	return t >= r.From && (r.To == 0 || t <= r.To)
}

// segment is the stretch of a tick log between two RESET entries. Tick
// numbers restart in every segment, so each one is compared against the
// snapshot on its own.
type segment struct {
	Advances int
	Checked  int
	Mismatch error
}

func compareLog(snap snapshot.SnapshotV1, entries []engine.TickLogEntry, r tickRange) []segment {
	segs := []segment{{}}
	for _, e := range entries {
		if e.Kind == engine.KindReset {
			segs = append(segs, segment{})
			continue
		}
		if e.Kind != engine.KindAdvance {
			continue
		}
		cur := &segs[len(segs)-1]
		cur.Advances++
		if cur.Mismatch != nil || !r.contains(e.Tick) || e.Tick >= uint64(len(snap.History)) {
			continue
		}
		cur.Checked++
		cur.Mismatch = compareRecord(snap.History[e.Tick], e)
	}
	return segs
}

func compareRecord(rec snapshot.TickRecordV1, e engine.TickLogEntry) error {
	if rec.Entity != uint32(e.Entity) || rec.Input != uint8(e.Input) {
		return fmt.Errorf("input mismatch at tick %d: log=(%d,%s) snapshot=(%d,%d)", e.Tick, e.Entity, e.Input, rec.Entity, rec.Input)
	}
	if rec.Digest != e.Digest {
		return fmt.Errorf("digest mismatch at tick %d: log=%s snapshot=%s", e.Tick, e.Digest, rec.Digest)
	}
	return nil
}
