// Command libticksim builds the engine as a C shared library:
//
//	go build -buildmode=c-shared -o libticksim.so ./cmd/libticksim
//	go build -buildmode=c-shared -tags single -o libticksim.so ./cmd/libticksim
//
// The default build exports the entity-addressed call shape; -tags single
// exports the single-entity shape instead. Both share create, destroy,
// reset and tick count.
package main

/*
#include "ticksim.h"
*/
import "C"

import (
	"ticksim.ai/internal/boundary"
	"ticksim.ai/internal/sim/engine"
)

var registry = boundary.NewRegistry()

//export ticksim_create
func ticksim_create(moveMode C.int32_t) C.ticksim_handle {
	h := registry.Create(engine.Config{
		Mode:     buildMode,
		MoveMode: engine.MoveModeFromTag(int32(moveMode)),
	})
	return C.ticksim_handle(h)
}

//export ticksim_destroy
func ticksim_destroy(h C.ticksim_handle) {
	registry.Destroy(boundary.Handle(h))
}

//export ticksim_reset
func ticksim_reset(h C.ticksim_handle) {
	registry.Reset(boundary.Handle(h))
}

//export ticksim_get_tick_count
func ticksim_get_tick_count(h C.ticksim_handle) C.uint64_t {
	return C.uint64_t(registry.GetTickCount(boundary.Handle(h)))
}

func toC(v boundary.Vec2) C.ticksim_vec2 {
	return C.ticksim_vec2{x: C.float(v.X), y: C.float(v.Y)}
}

func main() {}
