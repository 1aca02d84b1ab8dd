package protocol

// Mission actions.
const (
	ActionMove    = "move"
	ActionPatrol  = "patrol"
	ActionInspect = "inspect"
	ActionError   = "error"
)

// Mission is one planner-issued directive targeting a single robot.
// Coordinates is nil for missions that carry no target (the "error"
// action); x/z are clamped to the grid by the validator before the
// execution engine ever sees them.
type Mission struct {
	RobotID     string      `json:"robotId"`
	Action      string      `json:"action"`
	Coordinates *[3]float64 `json:"coordinates,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// IsMovement reports whether the mission's action mutates a robot's
// position when its preconditions pass.
func (m Mission) IsMovement() bool {
	switch m.Action {
	case ActionMove, ActionPatrol, ActionInspect:
		return true
	}
	return false
}

// MissionPlan is the shape the generative model must produce.
type MissionPlan struct {
	Missions []Mission `json:"missions"`
}

// CommandResult is the command-submission response: either a mission
// list, or action="error" with a human-readable message. Callers must
// treat a missing missions array the same as an explicit error.
type CommandResult struct {
	Missions []Mission `json:"missions,omitempty"`
	Action   string    `json:"action,omitempty"`
	Code     string    `json:"code,omitempty"`
	Message  string    `json:"message,omitempty"`
}

func ErrorResult(code, message string) CommandResult {
	return CommandResult{Action: ActionError, Code: code, Message: message}
}
