// Package boundary is the flat, C-shaped surface over engine handles. It
// holds no C types itself; cmd/libticksim maps its exported symbols onto
// these calls one to one.
//
// Handles are opaque non-zero integers. A zero, unknown or destroyed handle
// never faults: mutations become no-ops and queries return zero values.
package boundary

import (
	"sync"

	"ticksim.ai/internal/sim/engine"
)

type Handle uint64

// Vec2 has the same layout as the C ticksim_vec2.
type Vec2 = engine.Vec2

type Registry struct {
	mu      sync.RWMutex
	next    Handle
	engines map[Handle]*engine.Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[Handle]*engine.Engine)}
}

// Create builds a fresh engine and returns its handle.
func (r *Registry) Create(cfg engine.Config) Handle {
	e := engine.New(cfg)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	if r.next == 0 {
		r.next = 1
	}
	h := r.next
	r.engines[h] = e
	return h
}

// Destroy releases h. It reports whether h was live.
func (r *Registry) Destroy(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engines[h]; !ok {
		return false
	}
	delete(r.engines, h)
	return true
}

func (r *Registry) Lookup(h Handle) (*engine.Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[h]
	return e, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}
