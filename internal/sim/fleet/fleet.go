// Package fleet holds the local simulation state and the mission
// execution engine that mutates it.
package fleet

import (
	"math"

	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/sim/tuning"
)

// Robot is one simulated entity. Position is [x, y, z] with y pinned
// to the ground plane; battery lives in [0, 100].
type Robot struct {
	ID        string
	Position  [3]float64
	Battery   float64
	RobotType string
	Color     string
}

// Fleet is the full local fleet snapshot. All mutation is
// copy-on-write: step functions return a new Fleet and never write
// through a shared slice.
type Fleet []Robot

// FromRoster builds the session-start fleet from the seed roster.
func FromRoster(roster []tuning.SeedRobot) Fleet {
	f := make(Fleet, 0, len(roster))
	for _, s := range roster {
		f = append(f, Robot{
			ID:        s.ID,
			Position:  s.Position,
			Battery:   s.Battery,
			RobotType: s.RobotType,
			Color:     s.Color,
		})
	}
	return f
}

func (f Fleet) Clone() Fleet {
	out := make(Fleet, len(f))
	copy(out, f)
	return out
}

func (f Fleet) Index(id string) int {
	for i := range f {
		if f[i].ID == id {
			return i
		}
	}
	return -1
}

func (f Fleet) Snapshots() []protocol.RobotSnapshot {
	out := make([]protocol.RobotSnapshot, 0, len(f))
	for _, r := range f {
		out = append(out, protocol.RobotSnapshot{
			ID:        r.ID,
			Position:  r.Position,
			Battery:   r.Battery,
			RobotType: r.RobotType,
			Color:     r.Color,
		})
	}
	return out
}

func FromSnapshot(s protocol.RobotSnapshot) Robot {
	return Robot{
		ID:        s.ID,
		Position:  s.Position,
		Battery:   s.Battery,
		RobotType: s.RobotType,
		Color:     s.Color,
	}
}

// PlanarDistance is the (x, z) Euclidean distance; the y axis plays no
// part in collision or charger geometry.
func PlanarDistance(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dz*dz)
}
