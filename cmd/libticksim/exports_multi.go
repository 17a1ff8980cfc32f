//go:build !single

package main

/*
#include "ticksim.h"
*/
import "C"

import (
	"ticksim.ai/internal/boundary"
	"ticksim.ai/internal/sim/engine"
)

const buildMode = engine.ModeMulti

//export ticksim_register_entity
func ticksim_register_entity(h C.ticksim_handle, id C.uint32_t, x, y C.float) {
	registry.RegisterEntity(boundary.Handle(h), uint32(id), float32(x), float32(y))
}

//export ticksim_advance_tick
func ticksim_advance_tick(h C.ticksim_handle, id C.uint32_t, dir C.int32_t) {
	registry.AdvanceTick(boundary.Handle(h), uint32(id), int32(dir))
}

//export ticksim_get_position
func ticksim_get_position(h C.ticksim_handle, id C.uint32_t) C.ticksim_vec2 {
	return toC(registry.GetPosition(boundary.Handle(h), uint32(id)))
}

//export ticksim_get_position_at_tick
func ticksim_get_position_at_tick(h C.ticksim_handle, id C.uint32_t, index C.uint64_t) C.ticksim_vec2 {
	return toC(registry.GetPositionAtTick(boundary.Handle(h), uint32(id), uint64(index)))
}
