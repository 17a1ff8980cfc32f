package boundary

import "ticksim.ai/internal/sim/engine"

func (r *Registry) Reset(h Handle) {
	if e, ok := r.Lookup(h); ok {
		e.Reset()
	}
}

func (r *Registry) RegisterEntity(h Handle, id uint32, x, y float32) {
	if e, ok := r.Lookup(h); ok {
		e.RegisterEntity(engine.EntityID(id), Vec2{X: x, Y: y})
	}
}

// AdvanceTick takes the raw direction tag; tags outside the enumeration
// advance the tick with no movement.
func (r *Registry) AdvanceTick(h Handle, id uint32, dirTag int32) {
	if e, ok := r.Lookup(h); ok {
		e.AdvanceTick(engine.EntityID(id), engine.DirectionFromTag(dirTag))
	}
}

func (r *Registry) GetPosition(h Handle, id uint32) Vec2 {
	if e, ok := r.Lookup(h); ok {
		return e.Position(engine.EntityID(id))
	}
	return Vec2{}
}

func (r *Registry) GetTickCount(h Handle) uint64 {
	if e, ok := r.Lookup(h); ok {
		return e.TickCount()
	}
	return 0
}

func (r *Registry) GetPositionAtTick(h Handle, id uint32, index uint64) Vec2 {
	if e, ok := r.Lookup(h); ok {
		return e.PositionAtTick(engine.EntityID(id), index)
	}
	return Vec2{}
}

// Single-entity call shapes. They address engine.SingleEntityID and are
// meant for handles created with engine.ModeSingle.

func (r *Registry) SingleAdvanceTick(h Handle, dirTag int32) {
	r.AdvanceTick(h, uint32(engine.SingleEntityID), dirTag)
}

func (r *Registry) SingleGetPosition(h Handle) Vec2 {
	return r.GetPosition(h, uint32(engine.SingleEntityID))
}

func (r *Registry) SingleGetPositionAtTick(h Handle, index uint64) Vec2 {
	return r.GetPositionAtTick(h, uint32(engine.SingleEntityID), index)
}
