package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"ticksim.ai/internal/persistence/snapshot"
	"ticksim.ai/internal/sim/engine"
)

// tickFanout forwards every entry to each non-nil logger in order.
type tickFanout []engine.TickLogger

func (f tickFanout) WriteTick(entry engine.TickLogEntry) error {
	var first error
	for _, l := range f {
		if l == nil {
			continue
		}
		if err := l.WriteTick(entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// drainTicks consumes the engine's tick channel until ctx is done, then
// flushes whatever is still buffered.
func drainTicks(ctx context.Context, ch <-chan engine.TickLogEntry, out engine.TickLogger, logger *log.Logger) {
	write := func(e engine.TickLogEntry) {
		if err := out.WriteTick(e); err != nil {
			logger.Printf("tick log: %v", err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e := <-ch:
					write(e)
				default:
					return
				}
			}
		case e := <-ch:
			write(e)
		}
	}
}

type snapshotWriter struct {
	dir    string
	idx    runtimeIndex
	logger *log.Logger

	mu sync.Mutex
}

func (w *snapshotWriter) pathFor(tick uint64) string {
	return filepath.Join(w.dir, fmt.Sprintf("%d.snap.zst", tick))
}

// Write stores snap under <dir>/<tick>.snap.zst and records it in the index.
func (w *snapshotWriter) Write(snap snapshot.SnapshotV1) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.pathFor(snap.Header.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", err
	}
	if w.idx != nil {
		w.idx.RecordSnapshot(path, snap)
	}
	return path, nil
}

// run builds and writes each pending snapshot until ctx is done, then
// writes whatever is still buffered.
func (w *snapshotWriter) run(ctx context.Context, ch <-chan engine.PendingSnapshot) {
	write := func(p engine.PendingSnapshot) {
		if _, err := w.Write(p.Build()); err != nil {
			w.logger.Printf("snapshot write: %v", err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case p := <-ch:
					write(p)
				default:
					return
				}
			}
		case p := <-ch:
			write(p)
		}
	}
}

// sinkPipeline owns the engine's tick and snapshot channels and the
// goroutines draining them.
type sinkPipeline struct {
	engine *engine.Engine
	stop   context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func startSinks(e *engine.Engine, tickQueue, snapQueue int, ticks engine.TickLogger, snaps *snapshotWriter, logger *log.Logger) *sinkPipeline {
	ctx, cancel := context.WithCancel(context.Background())
	p := &sinkPipeline{engine: e, stop: cancel}

	tickCh := make(chan engine.TickLogEntry, tickQueue)
	snapCh := make(chan engine.PendingSnapshot, snapQueue)
	e.SetTickSink(tickCh)
	e.SetSnapshotSink(snapCh)

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		drainTicks(ctx, tickCh, ticks, logger)
	}()
	go func() {
		defer p.wg.Done()
		snaps.run(ctx, snapCh)
	}()
	return p
}

// Close detaches both sinks from the engine before stopping the drains.
// Engine sends happen under its lock, so once the setters return nothing
// else can enter the channels and the final drain sees every entry.
func (p *sinkPipeline) Close() {
	p.once.Do(func() {
		p.engine.SetTickSink(nil)
		p.engine.SetSnapshotSink(nil)
		p.stop()
		p.wg.Wait()
	})
}

func (w *snapshotWriter) Latest() string {
	ents, err := os.ReadDir(w.dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(w.dir, name)
		}
	}
	return best
}
