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

	persistlog "fleetmind.ai/internal/persistence/log"
	"fleetmind.ai/internal/planner"
	"fleetmind.ai/internal/planner/genai"
	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/sim/session"
	"fleetmind.ai/internal/sim/tuning"
	"fleetmind.ai/internal/store"
	"fleetmind.ai/internal/transport/httpapi"
	"fleetmind.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		room       = flag.String("room", "lobby", "shared room id")
		robotID    = flag.String("robot", "A", "locally controlled robot id")
		seed       = flag.Int64("seed", 0, "rng seed for RL/telemetry (0 = wall clock)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		schemaPath = flag.String("schema", "./schemas/mission_plan.schema.json", "mission plan response schema")
		dbPath     = flag.String("db", "", "sqlite store path (default: <data>/fleetmind.db; \"off\" for memory only)")
		model      = flag.String("model", "gemini-2.0-flash", "planner model id (api key from GEMINI_API_KEY)")
		live       = flag.Bool("live", true, "enable live telemetry drift")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

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

	roomDir := filepath.Join(*dataDir, "rooms", *room)
	_ = os.MkdirAll(roomDir, 0o755)

	st := openStore(*dbPath, *dataDir, logger)

	proc := buildProcessor(*model, *schemaPath, *robotID, tune, logger)

	eventLog := persistlog.NewEventLogger(roomDir, *room)
	telemetryLog := persistlog.NewTelemetryLogger(roomDir, *room)
	defer eventLog.Close()
	defer telemetryLog.Close()

	sess := session.New(session.Config{
		Room:         *room,
		LocalRobotID: *robotID,
		Tuning:       tune,
		Seed:         *seed,
		Processor:    proc,
		Store:        st,
		Logger:       logger,
		EventLog:     eventLog,
		TelemetryLog: telemetryLog,
	})
	sess.SetLive(*live)

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := sess.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("session stopped: %v", err)
		}
	}()

	api := httpapi.NewServer(sess, st, logger)
	mux := api.Router()
	mux.HandleFunc("/v1/ws", ws.NewServer(sess, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("room=%s robot=%s listening on %s", *room, *robotID, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// openStore picks the primary backend and always wraps it in the
// memory fallback so store failures never surface to the session.
func openStore(dbPath, dataDir string, logger *log.Logger) store.Store {
	switch strings.TrimSpace(dbPath) {
	case "off":
		logger.Printf("store: memory only")
		return store.NewFallback(store.NewMemory())
	case "":
		dbPath = filepath.Join(dataDir, "fleetmind.db")
	}
	primary, err := store.OpenSQLite(dbPath)
	if err != nil {
		logger.Printf("store: open %s: %v; memory only", dbPath, err)
		return store.NewFallback(store.NewMemory())
	}
	logger.Printf("store: sqlite %s", dbPath)
	return store.NewFallback(primary)
}

// buildProcessor wires the plan/validate pipeline. Without an API key
// the server still runs; commands resolve to a planner error result,
// while training, telemetry and room sync keep working.
func buildProcessor(model, schemaPath, robotID string, tune tuning.Tuning, logger *log.Logger) session.CommandProcessor {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		logger.Printf("planner: GEMINI_API_KEY not set; commands will fail with %s", protocol.ErrPlanner)
		return unavailableProcessor{}
	}
	client, err := genai.New(genai.Config{APIKey: apiKey, Model: model})
	if err != nil {
		logger.Fatalf("planner client: %v", err)
	}
	pl, err := planner.New(client, schemaPath, robotID)
	if err != nil {
		logger.Fatalf("planner: %v", err)
	}
	timeout := time.Duration(tune.Sync.PlannerTimeoutMs) * time.Millisecond
	return planner.NewPipeline(pl, tune.GridBoundary, timeout)
}

type unavailableProcessor struct{}

func (unavailableProcessor) Process(context.Context, string) protocol.CommandResult {
	return protocol.ErrorResult(protocol.ErrPlanner, "Planner not configured: missing API key.")
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
