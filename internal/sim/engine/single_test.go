package engine

import "testing"

func TestSingle_ImplicitEntity(t *testing.T) {
	s := NewSingle(Config{})
	if got := s.Engine().Config().Mode; got != ModeSingle {
		t.Fatalf("mode: got %s", got)
	}
	if got := s.Position(); got != (Vec2{}) {
		t.Fatalf("fresh position: %+v", got)
	}
	s.AdvanceTick(DirRight)
	if got := s.Position(); got != (Vec2{X: 1, Y: 0}) {
		t.Fatalf("after RIGHT: %+v", got)
	}
	s.AdvanceTick(DirUp)
	if got := s.TickCount(); got != 2 {
		t.Fatalf("TickCount: %d", got)
	}
	if got := s.PositionAtTick(0); got != (Vec2{X: 1, Y: 0}) {
		t.Fatalf("PositionAtTick(0): %+v", got)
	}
	if got := s.PositionAtTick(9); got != (Vec2{X: 0, Y: 1}) {
		t.Fatalf("PositionAtTick fallback: %+v", got)
	}
}

func TestSingle_ResetRestoresImplicitEntity(t *testing.T) {
	s := NewSingle(Config{MoveMode: MoveAccumulate})
	s.AdvanceTick(DirUp)
	s.AdvanceTick(DirUp)
	if got := s.Position(); got != (Vec2{X: 0, Y: 2}) {
		t.Fatalf("accumulate: %+v", got)
	}
	s.Reset()
	if s.TickCount() != 0 || s.Position() != (Vec2{}) {
		t.Fatalf("reset: ticks=%d pos=%+v", s.TickCount(), s.Position())
	}
	ids := s.Engine().Entities()
	if len(ids) != 1 || ids[0] != SingleEntityID {
		t.Fatalf("implicit entity missing after reset: %v", ids)
	}
	s.AdvanceTick(DirDown)
	if got := s.Position(); got != (Vec2{X: 0, Y: -1}) {
		t.Fatalf("after reset + DOWN: %+v", got)
	}
}
