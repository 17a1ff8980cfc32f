package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"ticksim.ai/internal/persistence/snapshot"
	"ticksim.ai/internal/sim/engine"
	"ticksim.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable read model of the tick log. It is fed
// asynchronously and never feeds back into the engine.
//
// Engine resets restart tick numbering, so rows are keyed by (epoch, tick).
// Epoch 1 is the first run against a fresh database; every RESET entry and
// every reopen starts a new epoch.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	// Open transactions are committed at least this often, even when no
	// further requests arrive.
	maxWait time.Duration

	dropTick     atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     engine.TickLogEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	EngineID   string
	Tick       uint64
	Path       string
	Entities   int
	Records    int
	RecordedAt string
}

type QueueStats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropTickTotal     uint64 `json:"drop_tick_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 2*time.Second)
}

func openSQLite(path string, maxWait time.Duration) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if maxWait <= 0 {
		maxWait = 2 * time.Second
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	epoch, err := nextEpoch(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:      db,
		ch:      make(chan req, 65536),
		maxWait: maxWait,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(epoch)
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			epoch INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			input TEXT NOT NULL,
			known INTEGER NOT NULL,
			digest TEXT NOT NULL,
			entities INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (epoch, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS positions (
			epoch INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			PRIMARY KEY (epoch, tick, entity_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_entity ON positions(entity_id, epoch, tick);`,
		`CREATE TABLE IF NOT EXISTS registrations (
			epoch INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			PRIMARY KEY (epoch, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS epochs (
			epoch INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			path TEXT PRIMARY KEY,
			engine_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			entities INTEGER NOT NULL,
			records INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_tick ON snapshots(engine_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func nextEpoch(db *sql.DB) (int64, error) {
	var maxEpoch sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(epoch) FROM epochs`).Scan(&maxEpoch); err != nil {
		return 0, err
	}
	epoch := maxEpoch.Int64 + 1
	if _, err := db.Exec(`INSERT INTO epochs(epoch,started_at) VALUES(?,?)`, epoch, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return 0, err
	}
	return epoch, nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick satisfies engine.TickLogger. It never blocks the caller.
func (s *SQLiteIndex) WriteTick(entry engine.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		EngineID:   snap.Header.EngineID,
		Tick:       snap.Header.Tick,
		Path:       path,
		Entities:   len(snap.Entities),
		Records:    len(snap.History),
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// UpsertTuning stores the tuning actually applied, as canonical JSON.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows := [][2]string{
		{"schema_version", "1"},
		{"tuning_json", string(b)},
		{"tuning_digest", hex.EncodeToString(sum[:])},
	}
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, r[0], r[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop(epoch int64) {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(epoch,tick,entity_id,input,known,digest,entities,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertPos, _ := s.db.Prepare(`INSERT OR REPLACE INTO positions(epoch,tick,entity_id,x,y) VALUES(?,?,?,?,?)`)
	insertReg, _ := s.db.Prepare(`INSERT OR REPLACE INTO registrations(epoch,seq,tick,entity_id,x,y) VALUES(?,?,?,?,?,?)`)
	insertEpoch, _ := s.db.Prepare(`INSERT OR REPLACE INTO epochs(epoch,started_at) VALUES(?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(path,engine_id,tick,entities,records,recorded_at) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertPos, insertReg, insertEpoch, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = s.maxWait

		regSeq int64
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	handle := func(r req) {
		begin()
		if tx == nil {
			return
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			switch e.Kind {
			case engine.KindReset:
				epoch++
				regSeq = 0
				exec(insertEpoch, epoch, time.Now().UTC().Format(time.RFC3339Nano))

			case engine.KindRegister:
				regSeq++
				exec(insertReg, epoch, regSeq, int64(e.Tick), int64(e.Entity), float64(e.Pos.X), float64(e.Pos.Y))

			case engine.KindAdvance:
				b, _ := json.Marshal(e)
				if !exec(insertTick, epoch, int64(e.Tick), int64(e.Entity), e.Input.String(), boolInt(e.Known), e.Digest, len(e.Positions), string(b)) {
					return
				}
				for _, p := range e.Positions {
					if !exec(insertPos, epoch, int64(e.Tick), int64(p.ID), float64(p.X), float64(p.Y)) {
						break
					}
				}
			}

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.Path, sn.EngineID, int64(sn.Tick), sn.Entities, sn.Records, sn.RecordedAt)
		}
	}

	// The ticker commits a burst's tail once the queue goes idle.
	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()
	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			handle(r)
			flushIfNeeded()
		case <-ticker.C:
			flushIfNeeded()
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
