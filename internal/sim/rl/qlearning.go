// Package rl is the tabular Q-learning policy behind the autonomous
// charging behavior. The state space is tiny by construction (11
// battery buckets x 3 distance buckets), so a plain map-backed table
// is all the function approximation this needs.
package rl

import (
	"fmt"
	"math/rand"

	"fleetmind.ai/internal/sim/fleet"
)

type Action int

const (
	Wander Action = iota
	GoCharge
)

func (a Action) String() string {
	if a == GoCharge {
		return "GO_CHARGE"
	}
	return "WANDER"
}

const numActions = 2

// Agent holds the Q-table and the epsilon-greedy policy over it.
type Agent struct {
	table   map[string][]float64
	alpha   float64 // learning rate
	gamma   float64 // discount factor
	epsilon float64 // exploration probability

	rng *rand.Rand
}

func NewAgent(alpha, gamma, epsilon float64, rng *rand.Rand) *Agent {
	return &Agent{
		table:   make(map[string][]float64),
		alpha:   alpha,
		gamma:   gamma,
		epsilon: epsilon,
		rng:     rng,
	}
}

// StateKey discretizes (battery, planar distance to charger) into the
// table key "<batteryBucket>_<distanceBucket>".
func StateKey(battery float64, pos, charger [3]float64) string {
	if battery < 0 {
		battery = 0
	}
	if battery > 100 {
		battery = 100
	}
	batLevel := int(battery / 10) // 0-10

	dist := fleet.PlanarDistance(pos, charger)
	distLevel := 2
	if dist < 2 {
		distLevel = 0
	} else if dist < 10 {
		distLevel = 1
	}
	return fmt.Sprintf("%d_%d", batLevel, distLevel)
}

// entry returns the action-value row for state, lazily zero-initialized.
func (a *Agent) entry(state string) []float64 {
	q, ok := a.table[state]
	if !ok {
		q = make([]float64, numActions)
		a.table[state] = q
	}
	return q
}

// ChooseAction is epsilon-greedy; ties break toward GoCharge.
func (a *Agent) ChooseAction(state string) Action {
	q := a.entry(state)
	if a.rng.Float64() < a.epsilon {
		return Action(a.rng.Intn(numActions))
	}
	if q[Wander] > q[GoCharge] {
		return Wander
	}
	return GoCharge
}

// Learn applies the one-step tabular update
// Q(s,a) <- Q(s,a) + alpha*(r + gamma*max_a' Q(s',a') - Q(s,a)).
func (a *Agent) Learn(state string, action Action, reward float64, nextState string) {
	q := a.entry(state)
	next := a.entry(nextState)

	maxNext := next[0]
	for _, v := range next[1:] {
		if v > maxNext {
			maxNext = v
		}
	}
	q[action] += a.alpha * (reward + a.gamma*maxNext - q[action])
}

// Values returns a copy of the action-value row for state.
func (a *Agent) Values(state string) [numActions]float64 {
	var out [numActions]float64
	copy(out[:], a.entry(state))
	return out
}

// States lists every state key the agent has encountered.
func (a *Agent) States() []string {
	out := make([]string, 0, len(a.table))
	for k := range a.table {
		out = append(out, k)
	}
	return out
}
