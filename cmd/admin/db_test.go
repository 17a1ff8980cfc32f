package main

import (
	"database/sql"
	"path/filepath"
	"testing"

	"ticksim.ai/internal/persistence/indexdb"
	"ticksim.ai/internal/sim/engine"
)

func buildIndex(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	e := engine.New(engine.Config{ID: "adm"})
	ch := make(chan engine.TickLogEntry, 64)
	e.SetTickSink(ch)

	e.RegisterEntity(1, engine.Vec2{X: 5, Y: 5})
	e.AdvanceTick(1, engine.DirUp)
	e.Reset()
	e.RegisterEntity(1, engine.Vec2{})
	e.AdvanceTick(1, engine.DirRight)
	e.AdvanceTick(1, engine.DirDown)
	idx.RecordSnapshot("/tmp/2.snap.zst", e.ExportSnapshot())

	close(ch)
	for entry := range ch {
		_ = idx.WriteTick(entry)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestDBQueries(t *testing.T) {
	db, err := sql.Open("sqlite", buildIndex(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	epoch, err := latestEpoch(db)
	if err != nil || epoch != 2 {
		t.Fatalf("latestEpoch=%d err=%v", epoch, err)
	}

	epochs, err := queryEpochs(db, 10)
	if err != nil || len(epochs) != 2 || epochs[0].Epoch != 2 || epochs[0].Ticks != 2 || epochs[1].Ticks != 1 {
		t.Fatalf("epochs=%+v err=%v", epochs, err)
	}

	ticks, err := queryTicks(db, epoch, 10)
	if err != nil || len(ticks) != 2 || ticks[0].Tick != 1 || ticks[0].Input != "DOWN" || !ticks[0].Known {
		t.Fatalf("ticks=%+v err=%v", ticks, err)
	}

	trail, err := queryTrail(db, epoch, 1, 10)
	if err != nil || len(trail) != 2 {
		t.Fatalf("trail=%+v err=%v", trail, err)
	}
	if trail[0].X != 1 || trail[0].Y != 0 || trail[1].X != 0 || trail[1].Y != -1 {
		t.Fatalf("trail values: %+v", trail)
	}

	snaps, err := querySnapshots(db, 10)
	if err != nil || len(snaps) != 1 || snaps[0].Tick != 2 || snaps[0].Records != 2 || snaps[0].EngineID != "adm" {
		t.Fatalf("snapshots=%+v err=%v", snaps, err)
	}
}

func TestAdminURL(t *testing.T) {
	if got := adminURL(" http://127.0.0.1:8080/ ", "reset"); got != "http://127.0.0.1:8080/admin/v1/reset" {
		t.Fatalf("adminURL=%q", got)
	}
}
