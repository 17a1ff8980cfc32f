package engine

// Single is the single-entity call shape: every operation targets the one
// implicit entity, SingleEntityID.
type Single struct {
	e *Engine
}

func NewSingle(cfg Config) *Single {
	cfg.Mode = ModeSingle
	return &Single{e: New(cfg)}
}

// Engine exposes the underlying engine for sinks, metrics and snapshots.
func (s *Single) Engine() *Engine { return s.e }

func (s *Single) Reset() {
	s.e.Reset()
}

func (s *Single) AdvanceTick(dir Direction) uint64 {
	return s.e.AdvanceTick(SingleEntityID, dir)
}

func (s *Single) Position() Vec2 {
	return s.e.Position(SingleEntityID)
}

func (s *Single) TickCount() uint64 {
	return s.e.TickCount()
}

func (s *Single) PositionAtTick(index uint64) Vec2 {
	return s.e.PositionAtTick(SingleEntityID, index)
}
