package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/reconcile"
	"fleetmind.ai/internal/store"
)

// Fleet telemetry monitor: polls the shared room state once a second
// and prints the active-agent count and mean battery level.
func main() {
	var (
		dbPath = flag.String("db", "./data/fleetmind.db", "sqlite store path (shared with the server)")
		room   = flag.String("room", "lobby", "room id to watch")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[monitor] ", log.LstdFlags)

	st, err := store.OpenSQLite(*dbPath)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	key := reconcile.RoomKey(*room)
	logger.Printf("watching %s (Ctrl+C to stop)", key)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			fmt.Println()
			logger.Printf("telemetry monitor stopped")
			return
		case <-ticker.C:
			printSample(st, key)
		}
	}
}

func printSample(st store.Store, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 900*time.Millisecond)
	defer cancel()

	raw, ok, err := st.Get(ctx, key)
	if err != nil || !ok {
		fmt.Printf("\r[%s] waiting for room state...", time.Now().Format("15:04:05"))
		return
	}

	var state protocol.RoomState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		fmt.Printf("\r[%s] corrupt room state (%d bytes)", time.Now().Format("15:04:05"), len(raw))
		return
	}
	if len(state.Robots) == 0 {
		fmt.Printf("\r[%s] waiting for active robots...", time.Now().Format("15:04:05"))
		return
	}

	var sum float64
	for _, r := range state.Robots {
		sum += r.Battery
	}
	avg := sum / float64(len(state.Robots))

	fmt.Printf("\r[%s] active agents: %d | fleet battery: %.1f%% | raw stream: %d bytes",
		time.Now().Format("15:04:05"), len(state.Robots), avg, len(raw))
}
