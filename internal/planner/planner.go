// Package planner turns free-form fleet commands into validated
// mission lists via a generative model. The pipeline is two-stage:
// plan (model call + strict parse) then validate (spatial clamping).
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"fleetmind.ai/internal/protocol"
)

// systemInstruction is the fixed contract sent with every command.
const systemInstruction = `You are FleetMind, an AI commander for a robot fleet.
Your job is to translate natural language commands into JSON mission parameters for a robot (or multiple robots) in a 3D warehouse.
The warehouse is a 30x30 grid. Center is [0, 0, 0].

Output MUST be valid JSON only. No markdown formatting.

Structure:
{
  "missions": [
    {
      "robotId": "A" | "B" | "C",
      "action": "move" | "patrol" | "inspect" | "error",
      "coordinates": [x, y, z],
      "message": "confirmation message"
    }
  ]
}

Example:
User: "Robot A go to north east corner, Robot B go to center"
Output: {
  "missions": [
    { "robotId": "A", "action": "move", "coordinates": [10, 0, -10], "message": "Robot A moving to North East." },
    { "robotId": "B", "action": "move", "coordinates": [0, 0, 0], "message": "Robot B moving to Center." }
  ]
}

Use "A" as default if no ID specified.
If the command is unclear, return "action": "error".`

// ModelClient is the generative-model collaborator.
type ModelClient interface {
	GenerateContent(ctx context.Context, system, user string) (string, error)
}

// Error is a planner-stage failure carrying a protocol error code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

type Planner struct {
	model        ModelClient
	schema       *jsonschema.Schema
	defaultRobot string
}

func New(model ModelClient, schemaPath, defaultRobot string) (*Planner, error) {
	s, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("compile mission schema: %w", err)
	}
	if defaultRobot == "" {
		defaultRobot = "A"
	}
	return &Planner{model: model, schema: s, defaultRobot: defaultRobot}, nil
}

// Plan invokes the model and parses its response into a candidate
// mission list. Any model or parse failure is an *Error with code
// E_PLANNER; nothing downstream sees unvalidated model output.
func (p *Planner) Plan(ctx context.Context, command string) ([]protocol.Mission, error) {
	text, err := p.model.GenerateContent(ctx, systemInstruction, command)
	if err != nil {
		return nil, &Error{Code: protocol.ErrPlanner, Message: "System malfunction. AI agent unavailable."}
	}

	clean := stripFences(text)

	var raw any
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, &Error{Code: protocol.ErrPlanner, Message: "Failed to parse mission plan."}
	}
	if err := p.schema.Validate(raw); err != nil {
		return nil, &Error{Code: protocol.ErrPlanner, Message: "Failed to parse mission plan."}
	}

	var plan struct {
		Missions []wireMission `json:"missions"`
	}
	if err := json.Unmarshal([]byte(clean), &plan); err != nil {
		return nil, &Error{Code: protocol.ErrPlanner, Message: "Failed to parse mission plan."}
	}

	missions := make([]protocol.Mission, 0, len(plan.Missions))
	for _, wm := range plan.Missions {
		m := protocol.Mission{
			RobotID:     wm.RobotID,
			Action:      wm.Action,
			Coordinates: wm.Coordinates,
		}
		if m.RobotID == "" {
			m.RobotID = p.defaultRobot
		}
		// The model sometimes emits a non-string message; coerce so the
		// engine's fallback text applies instead of failing the plan.
		var msg string
		if len(wm.Message) > 0 && json.Unmarshal(wm.Message, &msg) == nil {
			m.Message = msg
		}
		missions = append(missions, m)
	}
	return missions, nil
}

// wireMission is the untrusted decode target for one model-issued
// mission.
type wireMission struct {
	RobotID     string          `json:"robotId"`
	Action      string          `json:"action"`
	Coordinates *[3]float64     `json:"coordinates"`
	Message     json.RawMessage `json:"message"`
}

// stripFences removes markdown code-fence wrapping the model may emit
// despite the instruction.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
