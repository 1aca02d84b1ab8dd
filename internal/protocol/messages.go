package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Room            string `json:"room,omitempty"`
	Name            string `json:"name,omitempty"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	SessionID       string          `json:"session_id"`
	Room            string          `json:"room"`
	LocalRobotID    string          `json:"local_robot_id"`
	Robots          []RobotSnapshot `json:"robots"`
}

// COMMAND (client -> server): one free-form fleet command.
type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Command         string `json:"command"`
}

// RESULT (server -> client): outcome of a COMMAND.
type ResultMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Result          CommandResult `json:"result"`
}

// FLEET (server -> client): full fleet snapshot after a tick.
type FleetMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Room            string          `json:"room"`
	Robots          []RobotSnapshot `json:"robots"`
}

// LOG (server -> client): one appended session log event.
type LogMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Event           LogEvent `json:"event"`
}
