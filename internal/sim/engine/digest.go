package engine

import "ticksim.ai/internal/sim/engine/io/digestcodec"

// StateDigest hashes a position mapping as it stood after tick.
func StateDigest(tick uint64, positions map[EntityID]Vec2) string {
	entries := make([]digestcodec.Entry, 0, len(positions))
	for id, p := range positions {
		entries = append(entries, digestcodec.Entry{ID: uint32(id), X: p.X, Y: p.Y})
	}
	return digestcodec.TickDigest(tick, entries)
}

func RecordDigest(r TickRecord) string { return StateDigest(r.Tick, r.Positions) }

// DebugStateDigest digests the record at index, or "" if there is none.
func (e *Engine) DebugStateDigest(index uint64) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.history.at(index)
	if !ok {
		return ""
	}
	return RecordDigest(rec)
}
