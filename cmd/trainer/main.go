package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fleetmind.ai/internal/sim/fleet"
	"fleetmind.ai/internal/sim/rl"
	"fleetmind.ai/internal/sim/tuning"
)

// Headless Q-learning trainer: runs the charging policy against the
// fixed transition dynamics and dumps the learned table.
func main() {
	var (
		ticks      = flag.Int("ticks", 10000, "training ticks to run")
		seed       = flag.Int64("seed", 0, "rng seed (0 = wall clock)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		verbose    = flag.Bool("v", false, "print episode boundary events")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[trainer] ", log.LstdFlags)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))
	agent := rl.NewAgent(tune.RL.LearningRate, tune.RL.DiscountFactor, tune.RL.Epsilon, rng)
	trainer := rl.NewTrainer(agent, tune.RL, rng)

	robot := fleet.Robot{ID: "trainee", Battery: 100}
	episodes := 0
	for i := 0; i < *ticks; i++ {
		next, ev := trainer.Step(robot)
		robot = next
		if ev != nil {
			episodes++
			if *verbose {
				logger.Printf("%s", ev.Text)
			}
		}
	}

	logger.Printf("seed=%d ticks=%d episodes=%d states=%d", s, trainer.Iterations(), episodes, len(agent.States()))
	dumpTable(agent)
}

func dumpTable(agent *rl.Agent) {
	states := agent.States()
	sort.Strings(states)
	fmt.Println("state      WANDER     GO_CHARGE  policy")
	for _, s := range states {
		v := agent.Values(s)
		policy := rl.Wander
		if v[rl.GoCharge] >= v[rl.Wander] {
			policy = rl.GoCharge
		}
		fmt.Printf("%-10s %-10.3f %-10.3f %s\n", s, v[rl.Wander], v[rl.GoCharge], policy)
	}
}
