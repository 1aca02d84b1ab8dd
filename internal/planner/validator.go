package planner

import (
	"fleetmind.ai/internal/protocol"
)

// Validator is the sole enforcement point for spatial bounds: the
// model is told the grid size, but nothing downstream trusts it.
type Validator struct {
	// Boundary is the grid half-extent; x/z clamp into [-Boundary, Boundary].
	Boundary float64
}

// Validate rejects an absent or empty plan and clamps every mission's
// x and z target components to the grid. The y component, robotId and
// action pass through untouched.
func (v Validator) Validate(missions []protocol.Mission) ([]protocol.Mission, error) {
	if len(missions) == 0 {
		return nil, &Error{Code: protocol.ErrEmptyPlan, Message: "No missions generated."}
	}

	out := make([]protocol.Mission, len(missions))
	for i, m := range missions {
		if m.Coordinates != nil {
			c := *m.Coordinates
			c[0] = clamp(c[0], -v.Boundary, v.Boundary)
			c[2] = clamp(c[2], -v.Boundary, v.Boundary)
			m.Coordinates = &c
		}
		out[i] = m
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
