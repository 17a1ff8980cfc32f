package engine

import (
	"sync"
	"time"
)

// Engine owns one simulation: the live entity positions, the tick counter and
// the history ledger, all guarded by a single mutex. Every exported method
// holds the lock for its whole duration, so callers on any goroutine observe
// whole operations only.
//
// Nothing inside a locked section can panic: map writes go to maps that are
// never nil and every ledger lookup is bounds-checked.
type Engine struct {
	cfg Config

	mu        sync.Mutex
	tick      uint64
	positions map[EntityID]Vec2
	history   ledger

	tickSink     chan<- TickLogEntry
	snapshotSink chan<- PendingSnapshot

	droppedTickLogs  uint64
	droppedSnapshots uint64
	lastAdvance      time.Duration
}

func New(cfg Config) *Engine {
	cfg.applyDefaults()
	e := &Engine{cfg: cfg}
	e.resetLocked()
	return e
}

// Reset discards all entities and history. Single-entity engines get their
// implicit entity back at the origin.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	e.emitLocked(TickLogEntry{Kind: KindReset})
}

func (e *Engine) resetLocked() {
	e.tick = 0
	e.positions = make(map[EntityID]Vec2)
	if e.cfg.Mode == ModeSingle {
		e.positions[SingleEntityID] = Vec2{}
	}
	e.history.clear()
}

// RegisterEntity inserts or overwrites the position of id. It does not touch
// the tick counter or the ledger, so the new position first shows up in the
// record of the next AdvanceTick. Returns the tick count it was applied at.
func (e *Engine) RegisterEntity(id EntityID, pos Vec2) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.positions[id] = pos
	e.emitLocked(TickLogEntry{Kind: KindRegister, Tick: e.tick, Entity: id, Known: true, Pos: pos})
	return e.history.len()
}

// AdvanceTick applies dir to entity id (if registered), then appends one
// full snapshot to the ledger and bumps the tick. Unknown ids never create
// an entity but still consume a tick. Returns the index of the new record.
func (e *Engine) AdvanceTick(id EntityID, dir Direction) uint64 {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	dir = dir.normalize()
	cur, known := e.positions[id]
	if known {
		cur = e.cfg.MoveMode.apply(cur, dir.Delta())
		e.positions[id] = cur
	}

	index := e.tick
	rec := TickRecord{
		Tick:      index,
		Entity:    id,
		Input:     dir,
		Positions: copyPositions(e.positions),
	}
	e.history.append(rec)
	e.tick++

	if e.tickSink != nil {
		e.emitLocked(TickLogEntry{
			Kind:      KindAdvance,
			Tick:      index,
			Entity:    id,
			Input:     dir,
			Known:     known,
			Pos:       cur,
			Digest:    RecordDigest(rec),
			Positions: sortedPositions(rec.Positions),
		})
	}
	e.maybeSnapshotLocked()

	e.lastAdvance = time.Since(start)
	return index
}

// Position returns the live position of id, or the zero vector.
func (e *Engine) Position(id EntityID) Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions[id]
}

// TickCount is the ledger length, which always equals the current tick.
func (e *Engine) TickCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.len()
}

// PositionAtTick returns the position of id recorded at index. Indexes past
// the end of the ledger fall back to the live position; an id missing from
// the recorded snapshot reads as the zero vector.
func (e *Engine) PositionAtTick(id EntityID, index uint64) Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if rec, ok := e.history.at(index); ok {
		return rec.Positions[id]
	}
	return e.positions[id]
}

// PositionWithCount reads the live position and the tick count under one
// lock acquisition, so the pair is never torn by a concurrent AdvanceTick.
func (e *Engine) PositionWithCount(id EntityID) (Vec2, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions[id], e.history.len()
}

// PositionAtTickWithCount is PositionAtTick plus the tick count it was
// answered against.
func (e *Engine) PositionAtTickWithCount(id EntityID, index uint64) (Vec2, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.history.len()
	if rec, ok := e.history.at(index); ok {
		return rec.Positions[id], n
	}
	return e.positions[id], n
}

func (e *Engine) CurrentTick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Record returns a copy of the ledger entry at index.
func (e *Engine) Record(index uint64) (TickRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.history.at(index)
	if !ok {
		return TickRecord{}, false
	}
	return rec.clone(), true
}

// Positions returns a copy of the live mapping.
func (e *Engine) Positions() map[EntityID]Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyPositions(e.positions)
}

// Entities returns the registered ids in ascending order.
func (e *Engine) Entities() []EntityID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sortedIDs(e.positions)
}

func (e *Engine) Config() Config { return e.cfg }
