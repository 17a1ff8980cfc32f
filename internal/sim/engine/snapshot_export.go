package engine

import "ticksim.ai/internal/persistence/snapshot"

// PendingSnapshot is what the engine captures under its lock: the header,
// the live positions and a view of the ledger. Ledger records are immutable
// and a Reset drops the slice rather than truncating it, so Build can run
// on any goroutine after the lock is released.
type PendingSnapshot struct {
	header   snapshot.Header
	mode     Mode
	moveMode MoveMode
	every    int
	entities []snapshot.EntityV1
	records  []TickRecord
}

// Build copies and digests every captured record.
func (p PendingSnapshot) Build() snapshot.SnapshotV1 {
	s := snapshot.SnapshotV1{
		Header:             p.header,
		Mode:               string(p.mode),
		MoveMode:           string(p.moveMode),
		SnapshotEveryTicks: p.every,
		Entities:           p.entities,
		History:            make([]snapshot.TickRecordV1, 0, len(p.records)),
	}
	for _, r := range p.records {
		s.History = append(s.History, snapshot.TickRecordV1{
			Tick:      r.Tick,
			Entity:    uint32(r.Entity),
			Input:     uint8(r.Input),
			Digest:    RecordDigest(r),
			Positions: entitiesV1(r.Positions),
		})
	}
	return s
}

func (e *Engine) ExportSnapshot() snapshot.SnapshotV1 {
	e.mu.Lock()
	p := e.captureLocked()
	e.mu.Unlock()
	return p.Build()
}

// captureLocked costs O(entities), independent of history length.
func (e *Engine) captureLocked() PendingSnapshot {
	n := len(e.history.records)
	return PendingSnapshot{
		header: snapshot.Header{
			Version:  snapshot.Version,
			EngineID: e.cfg.ID,
			Tick:     e.tick,
		},
		mode:     e.cfg.Mode,
		moveMode: e.cfg.MoveMode,
		every:    e.cfg.SnapshotEveryTicks,
		entities: entitiesV1(e.positions),
		records:  e.history.records[:n:n],
	}
}

func (e *Engine) maybeSnapshotLocked() {
	if e.snapshotSink == nil || e.cfg.SnapshotEveryTicks <= 0 || e.tick == 0 {
		return
	}
	if e.tick%uint64(e.cfg.SnapshotEveryTicks) != 0 {
		return
	}
	select {
	case e.snapshotSink <- e.captureLocked():
	default:
		// Drop snapshot if sink is backed up.
		e.droppedSnapshots++
	}
}

func entitiesV1(m map[EntityID]Vec2) []snapshot.EntityV1 {
	out := make([]snapshot.EntityV1, 0, len(m))
	for _, p := range sortedPositions(m) {
		out = append(out, snapshot.EntityV1{ID: uint32(p.ID), X: p.X, Y: p.Y})
	}
	return out
}
