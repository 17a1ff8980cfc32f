package engine

import (
	"encoding/json"
	"testing"
)

func TestDirectionFromTag(t *testing.T) {
	cases := map[int32]Direction{
		0:  DirNone,
		1:  DirUp,
		2:  DirDown,
		3:  DirLeft,
		4:  DirRight,
		5:  DirNone,
		-1: DirNone,
		99: DirNone,
	}
	for tag, want := range cases {
		if got := DirectionFromTag(tag); got != want {
			t.Fatalf("tag %d: got %v want %v", tag, got, want)
		}
	}
}

func TestParseDirection(t *testing.T) {
	if d, ok := ParseDirection(" up "); !ok || d != DirUp {
		t.Fatalf("ParseDirection(up): %v %v", d, ok)
	}
	if d, ok := ParseDirection("RIGHT"); !ok || d != DirRight {
		t.Fatalf("ParseDirection(RIGHT): %v %v", d, ok)
	}
	if _, ok := ParseDirection("NORTH"); ok {
		t.Fatalf("NORTH should not parse")
	}
}

func TestDirection_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Direction `json:"d"`
	}{DirLeft})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"LEFT"}` {
		t.Fatalf("marshal: got %s", b)
	}
	var out struct {
		D Direction `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"down"}`), &out); err != nil || out.D != DirDown {
		t.Fatalf("unmarshal: %v %v", out.D, err)
	}
	if err := json.Unmarshal([]byte(`{"d":"SIDEWAYS"}`), &out); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}

func TestMoveModeFromTag(t *testing.T) {
	if MoveModeFromTag(1) != MoveAccumulate {
		t.Fatalf("tag 1 should accumulate")
	}
	for _, tag := range []int32{0, 2, -1} {
		if MoveModeFromTag(tag) != MoveSet {
			t.Fatalf("tag %d should set", tag)
		}
	}
}
