//go:build single

package main

/*
#include "ticksim.h"
*/
import "C"

import (
	"ticksim.ai/internal/boundary"
	"ticksim.ai/internal/sim/engine"
)

const buildMode = engine.ModeSingle

//export ticksim_advance_tick
func ticksim_advance_tick(h C.ticksim_handle, dir C.int32_t) {
	registry.SingleAdvanceTick(boundary.Handle(h), int32(dir))
}

//export ticksim_get_position
func ticksim_get_position(h C.ticksim_handle) C.ticksim_vec2 {
	return toC(registry.SingleGetPosition(boundary.Handle(h)))
}

//export ticksim_get_position_at_tick
func ticksim_get_position_at_tick(h C.ticksim_handle, index C.uint64_t) C.ticksim_vec2 {
	return toC(registry.SingleGetPositionAtTick(boundary.Handle(h), uint64(index)))
}
