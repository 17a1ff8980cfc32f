package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type snapshotRow struct {
	Path       string `json:"path"`
	EngineID   string `json:"engine_id"`
	Tick       int64  `json:"tick"`
	Entities   int    `json:"entities"`
	Records    int    `json:"records"`
	RecordedAt string `json:"recorded_at"`
}

type epochRow struct {
	Epoch     int64  `json:"epoch"`
	StartedAt string `json:"started_at"`
	Ticks     int64  `json:"ticks"`
}

type tickRow struct {
	Epoch    int64  `json:"epoch"`
	Tick     int64  `json:"tick"`
	EntityID int64  `json:"entity_id"`
	Input    string `json:"input"`
	Known    bool   `json:"known"`
	Digest   string `json:"digest"`
	Entities int    `json:"entities"`
}

type trailRow struct {
	Tick int64   `json:"tick"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	engineID := fs.String("engine", "", "engine id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	epoch := fs.Int64("epoch", 0, "epoch (optional; defaults to latest)")
	entity := fs.Int64("entity", -1, "entity id (trail)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*engineID) == "" {
			fmt.Fprintln(os.Stderr, "missing -engine or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "engines", *engineID, "index", "engine.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}
	if (q == "ticks" || q == "trail") && *epoch == 0 {
		*epoch, err = latestEpoch(db)
		if err != nil {
			fmt.Fprintln(os.Stderr, "latest epoch:", err)
			os.Exit(1)
		}
	}

	var rows any
	switch q {
	case "snapshots":
		rows, err = querySnapshots(db, *limit)
	case "epochs":
		rows, err = queryEpochs(db, *limit)
	case "ticks":
		rows, err = queryTicks(db, *epoch, *limit)
	case "trail":
		if *entity < 0 {
			fmt.Fprintln(os.Stderr, "trail requires -entity")
			os.Exit(2)
		}
		rows, err = queryTrail(db, *epoch, *entity, *limit)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(snapshots|epochs|ticks|trail)")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(rows); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
}

func latestEpoch(db *sql.DB) (int64, error) {
	var e sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(epoch) FROM epochs`).Scan(&e); err != nil {
		return 0, err
	}
	return e.Int64, nil
}

func querySnapshots(db *sql.DB, limit int) ([]snapshotRow, error) {
	rows, err := db.Query(`SELECT path,engine_id,tick,entities,records,recorded_at FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []snapshotRow
	for rows.Next() {
		var r snapshotRow
		if err := rows.Scan(&r.Path, &r.EngineID, &r.Tick, &r.Entities, &r.Records, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryEpochs(db *sql.DB, limit int) ([]epochRow, error) {
	rows, err := db.Query(`
		SELECT e.epoch, e.started_at, (SELECT COUNT(*) FROM ticks t WHERE t.epoch = e.epoch)
		FROM epochs e ORDER BY e.epoch DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []epochRow
	for rows.Next() {
		var r epochRow
		if err := rows.Scan(&r.Epoch, &r.StartedAt, &r.Ticks); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryTicks(db *sql.DB, epoch int64, limit int) ([]tickRow, error) {
	rows, err := db.Query(`SELECT epoch,tick,entity_id,input,known,digest,entities FROM ticks WHERE epoch=? ORDER BY tick DESC LIMIT ?`, epoch, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tickRow
	for rows.Next() {
		var r tickRow
		var known int
		if err := rows.Scan(&r.Epoch, &r.Tick, &r.EntityID, &r.Input, &known, &r.Digest, &r.Entities); err != nil {
			return nil, err
		}
		r.Known = known != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// queryTrail returns one entity's recorded positions in tick order.
func queryTrail(db *sql.DB, epoch, entity int64, limit int) ([]trailRow, error) {
	rows, err := db.Query(`SELECT tick,x,y FROM positions WHERE epoch=? AND entity_id=? ORDER BY tick ASC LIMIT ?`, epoch, entity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []trailRow
	for rows.Next() {
		var r trailRow
		if err := rows.Scan(&r.Tick, &r.X, &r.Y); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
