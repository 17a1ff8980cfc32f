package enginetest

import (
	"testing"

	"ticksim.ai/internal/persistence/snapshot"
	"ticksim.ai/internal/sim/engine"
)

// Harness drives an engine through its exported API only and collects the
// tick log it emits, so tests can live outside the engine package.
type Harness struct {
	T *testing.T
	E *engine.Engine

	ticks chan engine.TickLogEntry
	Log   []engine.TickLogEntry
}

func NewHarness(t *testing.T, cfg engine.Config) *Harness {
	t.Helper()
	h := &Harness{
		T:     t,
		E:     engine.New(cfg),
		ticks: make(chan engine.TickLogEntry, 1024),
	}
	h.E.SetTickSink(h.ticks)
	return h
}

// Step is one scripted input.
type Step struct {
	Entity engine.EntityID
	Dir    engine.Direction
}

func (h *Harness) Register(id engine.EntityID, x, y float32) {
	h.E.RegisterEntity(id, engine.Vec2{X: x, Y: y})
	h.drain()
}

// Run applies steps in order and returns the record digest of each tick.
func (h *Harness) Run(steps []Step) []string {
	h.T.Helper()
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		want := h.E.TickCount()
		idx := h.E.AdvanceTick(s.Entity, s.Dir)
		if idx != want {
			h.T.Fatalf("AdvanceTick index=%d want %d", idx, want)
		}
		out = append(out, h.E.DebugStateDigest(idx))
		h.drain()
	}
	return out
}

func (h *Harness) Snapshot() snapshot.SnapshotV1 {
	return h.E.ExportSnapshot()
}

func (h *Harness) drain() {
	h.T.Helper()
	for {
		select {
		case e := <-h.ticks:
			h.Log = append(h.Log, e)
		default:
			if d := h.E.Metrics().DroppedTickLogs; d != 0 {
				h.T.Fatalf("harness tick sink dropped %d entries", d)
			}
			return
		}
	}
}

// Script builds a deterministic pseudo-random input stream over ids. Unknown
// entities and out-of-range direction tags are mixed in.
func Script(n int, ids []engine.EntityID, seed uint32) []Step {
	x := seed | 1
	steps := make([]Step, 0, n)
	for i := 0; i < n; i++ {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		id := engine.EntityID(999)
		if len(ids) > 0 && x%8 != 0 {
			id = ids[int(x>>3)%len(ids)]
		}
		steps = append(steps, Step{Entity: id, Dir: engine.DirectionFromTag(int32(x>>8) % 7)})
	}
	return steps
}
