package rl

import (
	"fmt"
	"math/rand"

	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/sim/fleet"
	"fleetmind.ai/internal/sim/tuning"
)

// Trainer owns the transition dynamics: how each action perturbs the
// robot, the reward scheme, and episode resets. The agent itself stays
// purely numeric.
type Trainer struct {
	agent *Agent
	cfg   tuning.RL
	rng   *rand.Rand

	iter int
}

func NewTrainer(agent *Agent, cfg tuning.RL, rng *rand.Rand) *Trainer {
	return &Trainer{agent: agent, cfg: cfg, rng: rng}
}

func (t *Trainer) Agent() *Agent { return t.agent }
func (t *Trainer) Iterations() int { return t.iter }

// Step runs one training tick against the robot: choose an action,
// apply its dynamics, score the outcome, update the table. The
// returned event is non-nil only on episode boundaries (charged or
// depleted).
func (t *Trainer) Step(r fleet.Robot) (fleet.Robot, *protocol.LogEvent) {
	t.iter++

	state := StateKey(r.Battery, r.Position, t.cfg.ChargerPos)
	action := t.agent.ChooseAction(state)

	pos := r.Position
	battery := r.Battery
	reward := t.cfg.RewardSurvival

	switch action {
	case Wander:
		pos[0] += (t.rng.Float64() - 0.5) * t.cfg.WanderSpread
		pos[2] += (t.rng.Float64() - 0.5) * t.cfg.WanderSpread
		battery -= t.cfg.WanderDrain
	case GoCharge:
		pos[0] += (t.cfg.ChargerPos[0] - pos[0]) * t.cfg.ChargeStep
		pos[2] += (t.cfg.ChargerPos[2] - pos[2]) * t.cfg.ChargeStep
		battery -= t.cfg.ChargeDrain
	}

	var event *protocol.LogEvent
	if fleet.PlanarDistance(pos, t.cfg.ChargerPos) < t.cfg.CaptureRadius {
		reward = t.cfg.RewardCharged
		battery = 100
		// Teleport away so the episode restarts instead of farming the pad.
		pos = [3]float64{0, 0, 0}
		event = &protocol.LogEvent{Role: "bot", Text: fmt.Sprintf("Ep %d: CHARGED! (+%.0f)", t.iter, t.cfg.RewardCharged)}
	} else if battery <= 0 {
		reward = t.cfg.RewardDepleted
		battery = 100
		pos = [3]float64{0, 0, 0}
		event = &protocol.LogEvent{Role: "bot", Text: fmt.Sprintf("Ep %d: DIED. (%.0f)", t.iter, t.cfg.RewardDepleted)}
	}

	nextState := StateKey(battery, pos, t.cfg.ChargerPos)
	t.agent.Learn(state, action, reward, nextState)

	r.Position = pos
	r.Battery = battery
	return r, event
}
