package engine

import (
	"fmt"
	"strings"
)

// Vec2 matches the C layout of two 32-bit floats.
type Vec2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

type EntityID uint32

// SingleEntityID is the implicit entity of a single-entity engine.
const SingleEntityID EntityID = 0

// Direction is the closed input vocabulary. The numeric values are the tags
// used across the C boundary.
type Direction uint8

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

var directionNames = [...]string{"NONE", "UP", "DOWN", "LEFT", "RIGHT"}

// DirectionFromTag decodes a boundary tag. Anything outside the enumeration
// is treated as DirNone.
func DirectionFromTag(tag int32) Direction {
	if tag < 0 || tag > int32(DirRight) {
		return DirNone
	}
	return Direction(tag)
}

// ParseDirection accepts the upper- or lower-case name of a direction.
func ParseDirection(s string) (Direction, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range directionNames {
		if n == s {
			return Direction(i), true
		}
	}
	return DirNone, false
}

func (d Direction) Valid() bool { return d <= DirRight }

func (d Direction) normalize() Direction {
	if !d.Valid() {
		return DirNone
	}
	return d
}

// Delta is the unit (or zero) step for d.
func (d Direction) Delta() Vec2 {
	switch d {
	case DirUp:
		return Vec2{X: 0, Y: 1}
	case DirDown:
		return Vec2{X: 0, Y: -1}
	case DirLeft:
		return Vec2{X: -1, Y: 0}
	case DirRight:
		return Vec2{X: 1, Y: 0}
	default:
		return Vec2{}
	}
}

func (d Direction) String() string {
	return directionNames[d.normalize()]
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", string(b))
	}
	*d = v
	return nil
}

// MoveMode selects how AdvanceTick applies a direction to a registered
// entity.
//
// MoveSet replaces the position with the direction's delta. That is the
// historical behaviour hosts depend on, even though it reads like a movement
// step; MoveAccumulate adds the delta instead.
type MoveMode string

const (
	MoveSet        MoveMode = "set"
	MoveAccumulate MoveMode = "accumulate"
)

func (m MoveMode) Valid() bool { return m == MoveSet || m == MoveAccumulate }

func (m MoveMode) apply(cur Vec2, delta Vec2) Vec2 {
	if m == MoveAccumulate {
		return cur.Add(delta)
	}
	return delta
}

// MoveModeFromTag decodes a boundary tag: 1 is accumulate, anything else set.
func MoveModeFromTag(tag int32) MoveMode {
	if tag == 1 {
		return MoveAccumulate
	}
	return MoveSet
}

// Mode picks the call shape a host integrates against.
type Mode string

const (
	ModeMulti  Mode = "multi"
	ModeSingle Mode = "single"
)

func (m Mode) Valid() bool { return m == ModeMulti || m == ModeSingle }
