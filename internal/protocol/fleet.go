package protocol

// RobotSnapshot is the wire form of one robot, as stored per room and
// as streamed to browsers. Position is [x, y, z]; y stays on the
// ground plane in this domain.
type RobotSnapshot struct {
	ID        string     `json:"id"`
	Position  [3]float64 `json:"position"`
	Battery   float64    `json:"battery"`
	RobotType string     `json:"robotType,omitempty"`
	Color     string     `json:"color,omitempty"`
}

// RoomState is the payload stored under a room key: the room's robot
// list plus the writer's wall-clock milliseconds.
type RoomState struct {
	Robots    []RobotSnapshot `json:"robots"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// LogEvent is a human-readable session log entry (chat-style).
type LogEvent struct {
	Role string `json:"role"` // "user" or "bot"
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
}
