package engine

import "sort"

const (
	KindReset    = "RESET"
	KindRegister = "REGISTER"
	KindAdvance  = "ADVANCE"
)

type EntityPos struct {
	ID EntityID `json:"id"`
	X  float32  `json:"x"`
	Y  float32  `json:"y"`
}

// TickLogEntry is emitted for every mutating call, in lock order.
//
// For ADVANCE entries Tick is the index of the appended record and Digest its
// state digest; for REGISTER entries Tick is the index the registration
// first becomes visible at.
type TickLogEntry struct {
	Kind      string      `json:"kind"`
	Tick      uint64      `json:"tick"`
	Entity    EntityID    `json:"entity_id"`
	Input     Direction   `json:"input"`
	Known     bool        `json:"known"`
	Pos       Vec2        `json:"pos"`
	Digest    string      `json:"digest,omitempty"`
	Positions []EntityPos `json:"positions,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// emitLocked never blocks: a full sink drops the entry and counts it.
func (e *Engine) emitLocked(entry TickLogEntry) {
	if e.tickSink == nil {
		return
	}
	select {
	case e.tickSink <- entry:
	default:
		e.droppedTickLogs++
	}
}

func sortedIDs(m map[EntityID]Vec2) []EntityID {
	ids := make([]EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedPositions(m map[EntityID]Vec2) []EntityPos {
	out := make([]EntityPos, 0, len(m))
	for _, id := range sortedIDs(m) {
		p := m[id]
		out = append(out, EntityPos{ID: id, X: p.X, Y: p.Y})
	}
	return out
}
