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

	"tradepost.gg/internal/persistence/indexdb"
	persistlog "tradepost.gg/internal/persistence/log"
	"tradepost.gg/internal/sim/catalogs"
	"tradepost.gg/internal/sim/tuning"
	"tradepost.gg/internal/sim/world"
	"tradepost.gg/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (listing id randomization)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		layoutPath = flag.String("layout", "", "path to layout.yaml (default: <configs>/layout.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite audit index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	lp := strings.TrimSpace(*layoutPath)
	if lp == "" {
		lp = filepath.Join(*configDir, "layout.yaml")
	}
	layout, err := loadLayout(lp)
	if err != nil {
		logger.Fatalf("load layout: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index db: upsert catalogs: %v", err)
		}
	}

	w, err := world.New(world.Config{
		ID:                *worldID,
		TickRateHz:        tune.TickRateHz,
		Seed:              *seed,
		AutoCloseDistance: tune.AutoCloseDistance,
		SessionCheckTicks: tune.SessionCheckTicks,
		MaxMoveStep:       tune.MaxMoveStep,
		SpawnPos:          world.FromArray(layout.SpawnPos),
		StarterStacks:     tune.StarterStacks,
		Stores:            layout.storeSpecs(),
	}, cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	w.SetLogger(logger)

	auditLog := persistlog.NewAuditLogger(worldDir)
	defer auditLog.Close()
	w.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(w, tune, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Printf("listening on %s (world=%s tick=%dHz stores=%d)", *addr, *worldID, tune.TickRateHz, len(layout.Stores))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http: %v", err)
	}
}

// multiAuditLogger fans one audit entry out to the JSONL log and the
// sqlite index. The index is best-effort; only the JSONL error surfaces.
type multiAuditLogger struct {
	a *persistlog.AuditLogger
	b *indexdb.SQLiteIndex
}

func (m multiAuditLogger) WriteAudit(e world.AuditEntry) error {
	err := m.a.WriteAudit(e)
	_ = m.b.WriteAudit(e)
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
