package engine

import (
	"sync"
	"testing"
)

func TestConcurrentCallers_Serialized(t *testing.T) {
	e := newTestEngine()
	const (
		workers = 8
		perW    = 200
	)
	for i := 0; i < workers; i++ {
		e.RegisterEntity(EntityID(i), Vec2{})
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id EntityID) {
			defer wg.Done()
			for n := 0; n < perW; n++ {
				e.AdvanceTick(id, Direction(n%5))
				_ = e.Position(id)
				_ = e.PositionAtTick(id, uint64(n))
				_ = e.TickCount()
			}
		}(EntityID(i))
	}
	wg.Wait()

	if got, want := e.TickCount(), uint64(workers*perW); got != want {
		t.Fatalf("TickCount: got %d want %d", got, want)
	}
	for i := uint64(0); i < e.TickCount(); i++ {
		rec, ok := e.Record(i)
		if !ok || rec.Tick != i {
			t.Fatalf("record %d: ok=%v tick=%d", i, ok, rec.Tick)
		}
		if len(rec.Positions) != workers {
			t.Fatalf("record %d: snapshot has %d entities want %d", i, len(rec.Positions), workers)
		}
	}
}

func TestConcurrentReset_NeverPartial(t *testing.T) {
	e := newTestEngine()
	e.RegisterEntity(1, Vec2{})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			e.AdvanceTick(1, DirUp)
		}
	}()
	for i := 0; i < 200; i++ {
		e.Reset()
		e.RegisterEntity(1, Vec2{})
		m := e.Metrics()
		if m.Tick != m.HistoryRecords {
			close(stop)
			wg.Wait()
			t.Fatalf("tick %d != ledger length %d", m.Tick, m.HistoryRecords)
		}
	}
	close(stop)
	wg.Wait()
}
