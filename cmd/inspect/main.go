package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "ticksim.ai/internal/persistence/log"
	"ticksim.ai/internal/persistence/snapshot"
	"ticksim.ai/internal/sim/engine"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst")
		eventsDir = flag.String("events", "", "events dir containing events-*.jsonl.zst (optional)")
		fromTick  = flag.Uint64("from_tick", 0, "start comparing from tick (inclusive, optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop comparing at tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot v%d engine=%s tick=%d mode=%s move_mode=%s entities=%d records=%d\n",
		snap.Header.Version, snap.Header.EngineID, snap.Header.Tick, snap.Mode, snap.MoveMode,
		len(snap.Entities), len(snap.History))

	n, err := snapshot.VerifyDigests(snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "verify snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot digests ok: checked=%d records\n", n)

	if *eventsDir == "" {
		return
	}

	files, err := listEventFiles(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	var entries []engine.TickLogEntry
	for _, path := range files {
		got, err := persistlog.ReadTickLog(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read events:", err)
			os.Exit(1)
		}
		entries = append(entries, got...)
	}

	segs := compareLog(snap, entries, tickRange{From: *fromTick, To: *toTick})
	ok := false
	for i, s := range segs {
		status := "skipped"
		switch {
		case s.Checked > 0 && s.Mismatch == nil:
			status = "match"
			ok = true
		case s.Mismatch != nil:
			status = "mismatch: " + s.Mismatch.Error()
		}
		fmt.Printf("segment %d: advances=%d checked=%d %s\n", i, s.Advances, s.Checked, status)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "no logged segment matches the snapshot history")
		os.Exit(1)
	}
}

func listEventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}
