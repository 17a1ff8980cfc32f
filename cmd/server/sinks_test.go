package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ticksim.ai/internal/sim/engine"
)

// slowLogger keeps entries buffered in the tick channel when Close runs.
type slowLogger struct {
	recordingLogger
	delay time.Duration
}

func (s *slowLogger) WriteTick(e engine.TickLogEntry) error {
	time.Sleep(s.delay)
	return s.recordingLogger.WriteTick(e)
}

func TestSinkPipeline_CloseFlushesEverything(t *testing.T) {
	e := engine.New(engine.Config{ID: "pipe", SnapshotEveryTicks: 5})
	dir := filepath.Join(t.TempDir(), "snapshots")
	logger := log.New(io.Discard, "", 0)
	out := &slowLogger{delay: 200 * time.Microsecond}
	sinks := startSinks(e, 1024, 64, out, &snapshotWriter{dir: dir, logger: logger}, logger)

	e.RegisterEntity(1, engine.Vec2{})
	for i := 0; i < 200; i++ {
		e.AdvanceTick(1, engine.DirUp)
	}
	sinks.Close()

	if m := e.Metrics(); m.DroppedTickLogs != 0 || m.DroppedSnapshots != 0 {
		t.Fatalf("unexpected drops: %+v", m)
	}
	if len(out.got) != 201 {
		t.Fatalf("tick entries after Close: got %d want 201", len(out.got))
	}
	if last := out.got[len(out.got)-1]; last.Kind != engine.KindAdvance || last.Tick != 199 {
		t.Fatalf("last entry: %+v", last)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(ents) != 40 {
		t.Fatalf("snapshot files after Close: got %d want 40", len(ents))
	}

	// Detached: later ticks neither reach the old channels nor count as drops.
	e.AdvanceTick(1, engine.DirUp)
	if m := e.Metrics(); m.DroppedTickLogs != 0 {
		t.Fatalf("sink still attached after Close: %+v", m)
	}
	sinks.Close()
}
