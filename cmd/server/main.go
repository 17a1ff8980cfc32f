package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "ticksim.ai/internal/persistence/log"
	"ticksim.ai/internal/sim/engine"
	"ticksim.ai/internal/sim/tuning"
	"ticksim.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read model (tick + snapshot index)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	cfg := tune.EngineConfig()
	var e *engine.Engine
	if cfg.Mode == engine.ModeSingle {
		e = engine.NewSingle(cfg).Engine()
	} else {
		e = engine.New(cfg)
	}
	cfg = e.Config()

	engineDir := filepath.Join(*dataDir, "engines", cfg.ID)
	_ = os.MkdirAll(engineDir, 0o755)

	// Optional read model; never consulted by the engine itself.
	idx, err := openRuntimeIndex(engineDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(engineDir)
	defer tickLog.Close()

	snaps := &snapshotWriter{
		dir:    filepath.Join(engineDir, "snapshots"),
		idx:    idx,
		logger: logger,
	}
	if latest := snaps.Latest(); latest != "" {
		logger.Printf("previous snapshot on disk: %s (not loaded; engines start empty)", filepath.Base(latest))
	}
	fanout := tickFanout{tickLog}
	if idx != nil {
		fanout = append(fanout, idx)
	}
	sinks := startSinks(e, tune.TickLogQueue, tune.SnapshotQueue, fanout, snaps, logger)
	defer sinks.Close()

	a := &app{
		engine: e,
		ws: ws.NewServer(e, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds), ws.Options{
			MaxQueue:    tune.Transport.MaxQueue,
			ReadTimeout: time.Duration(tune.Transport.ReadTimeoutMs) * time.Millisecond,
		}),
		snaps:       snaps,
		idx:         idx,
		logger:      logger,
		enableAdmin: envBool("TS_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
		if err := a.ws.Shutdown(ctx2); err != nil {
			logger.Printf("ws shutdown: %v", err)
		}
	}()

	logger.Printf("engine=%s mode=%s move_mode=%s listening on %s", cfg.ID, cfg.Mode, cfg.MoveMode, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// Sessions are gone before the sinks detach, and the sinks drain before
	// the tick log and index close.
	cancel()
	<-stopped
	sinks.Close()
	logger.Printf("stopped at tick=%d", e.CurrentTick())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
