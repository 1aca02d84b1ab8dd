package fleet

import (
	"fmt"

	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/sim/tuning"
)

const fallbackMessage = "Executing mission..."

// Engine applies validated missions to the local fleet. Every mission
// runs independently through received -> (rejected | applied); there
// are no retries and no partial application.
type Engine struct {
	LowBatteryThreshold float64
	MoveBatteryCost     float64
	SafetyRadius        float64
}

func NewEngine(t tuning.Tuning) Engine {
	return Engine{
		LowBatteryThreshold: t.LowBatteryThreshold,
		MoveBatteryCost:     t.MoveBatteryCost,
		SafetyRadius:        t.SafetyRadius,
	}
}

// Apply executes one mission against the current fleet and returns the
// resulting fleet plus the log events it produced. A rejected or no-op
// mission returns the input fleet unchanged.
func (e Engine) Apply(m protocol.Mission, f Fleet) (Fleet, []protocol.LogEvent) {
	msg := m.Message
	if msg == "" {
		msg = fallbackMessage
	}
	events := []protocol.LogEvent{{Role: "bot", Text: msg}}

	if !m.IsMovement() || m.Coordinates == nil {
		// "error" missions and mission shapes with no target never
		// touch the fleet; the message above is their whole effect.
		return f, events
	}

	idx := f.Index(m.RobotID)
	if idx < 0 {
		// Unknown target: most often planner hallucination, dropped
		// without an alert so it reads as a non-event to the user.
		return f, events
	}
	r := f[idx]

	if r.Battery < e.LowBatteryThreshold {
		events = append(events, protocol.LogEvent{
			Role: "bot",
			Code: protocol.ErrLowBattery,
			Text: fmt.Sprintf("ALERT: Robot %s battery critical (%.1f%%). Cannot execute.", r.ID, r.Battery),
		})
		return f, events
	}

	target := *m.Coordinates
	for i := range f {
		if f[i].ID == m.RobotID {
			continue
		}
		if PlanarDistance(f[i].Position, target) < e.SafetyRadius {
			events = append(events, protocol.LogEvent{
				Role: "bot",
				Code: protocol.ErrCollisionRisk,
				Text: fmt.Sprintf("ALERT: Collision path detected for Robot %s. Aborting.", r.ID),
			})
			return f, events
		}
	}

	next := f.Clone()
	next[idx].Position = target
	next[idx].Battery = r.Battery - e.MoveBatteryCost
	if next[idx].Battery < 0 {
		next[idx].Battery = 0
	}
	return next, events
}

// ApplyAll runs missions strictly in planner order, each observing the
// fleet produced by the one before it.
func (e Engine) ApplyAll(missions []protocol.Mission, f Fleet) (Fleet, []protocol.LogEvent) {
	var events []protocol.LogEvent
	for _, m := range missions {
		var evs []protocol.LogEvent
		f, evs = e.Apply(m, f)
		events = append(events, evs...)
	}
	return f, events
}
