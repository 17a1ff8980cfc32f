package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ticksim.ai/internal/persistence/indexdb"
	"ticksim.ai/internal/persistence/snapshot"
	"ticksim.ai/internal/sim/engine"
	"ticksim.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	engine.TickLogger
	Close() error
	UpsertTuning(tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	Stats() indexdb.QueueStats
}

// openRuntimeIndex returns nil when indexing is disabled.
func openRuntimeIndex(engineDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("TS_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(engineDir, "index", "engine.sqlite"))
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported TS_INDEX_BACKEND: %s", backend)
	}
}
