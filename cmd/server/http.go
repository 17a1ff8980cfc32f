package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"ticksim.ai/internal/sim/engine"
	"ticksim.ai/internal/transport/ws"
)

type app struct {
	engine *engine.Engine
	ws     *ws.Server
	snaps  *snapshotWriter
	idx    runtimeIndex
	logger *log.Logger

	enableAdmin bool
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", a.handleMetrics)
	mux.HandleFunc("/v1/ws", a.ws.Handler())

	if a.enableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", a.handleState)
		mux.HandleFunc("/admin/v1/snapshot", a.handleSnapshot)
		mux.HandleFunc("/admin/v1/reset", a.handleReset)
	} else {
		a.logger.Printf("admin endpoints disabled (TS_ENABLE_ADMIN_HTTP=false)")
	}
	return mux
}

func (a *app) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	id := a.engine.Config().ID
	m := a.engine.Metrics()

	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP ticksim_engine_tick Current tick counter.\n")
	fmt.Fprintf(rw, "# TYPE ticksim_engine_tick gauge\n")
	fmt.Fprintf(rw, "ticksim_engine_tick{engine=%q} %d\n", id, m.Tick)

	fmt.Fprintf(rw, "# HELP ticksim_engine_entities Registered entity count.\n")
	fmt.Fprintf(rw, "# TYPE ticksim_engine_entities gauge\n")
	fmt.Fprintf(rw, "ticksim_engine_entities{engine=%q} %d\n", id, m.Entities)

	fmt.Fprintf(rw, "# HELP ticksim_engine_history_records Tick records held in the history ledger.\n")
	fmt.Fprintf(rw, "# TYPE ticksim_engine_history_records gauge\n")
	fmt.Fprintf(rw, "ticksim_engine_history_records{engine=%q} %d\n", id, m.HistoryRecords)

	fmt.Fprintf(rw, "# HELP ticksim_engine_dropped_total Sink sends dropped because the channel was full.\n")
	fmt.Fprintf(rw, "# TYPE ticksim_engine_dropped_total counter\n")
	fmt.Fprintf(rw, "ticksim_engine_dropped_total{engine=%q,sink=%q} %d\n", id, "tick_log", m.DroppedTickLogs)
	fmt.Fprintf(rw, "ticksim_engine_dropped_total{engine=%q,sink=%q} %d\n", id, "snapshot", m.DroppedSnapshots)

	fmt.Fprintf(rw, "# HELP ticksim_engine_advance_ms Last AdvanceTick duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE ticksim_engine_advance_ms gauge\n")
	fmt.Fprintf(rw, "ticksim_engine_advance_ms{engine=%q} %.3f\n", id, m.AdvanceMS)

	if a.idx != nil {
		s := a.idx.Stats()
		fmt.Fprintf(rw, "# HELP ticksim_index_queue_depth Index writer queue depth.\n")
		fmt.Fprintf(rw, "# TYPE ticksim_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "ticksim_index_queue_depth{engine=%q} %d\n", id, s.QueueDepth)

		fmt.Fprintf(rw, "# HELP ticksim_index_dropped_total Index writes dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE ticksim_index_dropped_total counter\n")
		fmt.Fprintf(rw, "ticksim_index_dropped_total{engine=%q,kind=%q} %d\n", id, "tick", s.DropTickTotal)
		fmt.Fprintf(rw, "ticksim_index_dropped_total{engine=%q,kind=%q} %d\n", id, "snapshot", s.DropSnapshotTotal)
	}
}

func (a *app) handleState(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	cfg := a.engine.Config()
	resp := struct {
		EngineID string               `json:"engine_id"`
		Mode     engine.Mode          `json:"mode"`
		MoveMode engine.MoveMode      `json:"move_mode"`
		Tick     uint64               `json:"tick"`
		Digest   string               `json:"digest"`
		Metrics  engine.EngineMetrics `json:"metrics"`
		Entities []engine.EntityPos   `json:"entities"`
	}{
		EngineID: cfg.ID,
		Mode:     cfg.Mode,
		MoveMode: cfg.MoveMode,
		Metrics:  a.engine.Metrics(),
	}
	resp.Tick = resp.Metrics.Tick
	positions := a.engine.Positions()
	resp.Digest = engine.StateDigest(resp.Tick, positions)
	for _, id := range a.engine.Entities() {
		p, ok := positions[id]
		if !ok {
			continue
		}
		resp.Entities = append(resp.Entities, engine.EntityPos{ID: id, X: p.X, Y: p.Y})
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (a *app) handleSnapshot(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	snap := a.engine.ExportSnapshot()
	path, err := a.snaps.Write(snap)
	if err != nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "tick": snap.Header.Tick, "error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "tick": snap.Header.Tick, "path": path})
}

func (a *app) handleReset(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	a.engine.Reset()
	a.logger.Printf("engine %s reset via admin", a.engine.Config().ID)
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "tick": a.engine.CurrentTick()})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
