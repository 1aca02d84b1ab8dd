package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	// Grid half-extent: valid x/z targets lie in [-GridBoundary, GridBoundary].
	GridBoundary float64 `yaml:"grid_boundary"`

	// Execution-engine preconditions.
	LowBatteryThreshold float64 `yaml:"low_battery_threshold"`
	MoveBatteryCost     float64 `yaml:"move_battery_cost"`
	SafetyRadius        float64 `yaml:"safety_radius"`

	RL   RL   `yaml:"rl"`
	Sync Sync `yaml:"sync"`

	Roster []SeedRobot `yaml:"roster"`
}

type RL struct {
	LearningRate   float64 `yaml:"learning_rate"`
	DiscountFactor float64 `yaml:"discount_factor"`
	Epsilon        float64 `yaml:"epsilon"`

	ChargerPos    [3]float64 `yaml:"charger_pos"`
	CaptureRadius float64    `yaml:"capture_radius"`
	WanderDrain   float64    `yaml:"wander_drain"`
	ChargeDrain   float64    `yaml:"charge_drain"`
	ChargeStep    float64    `yaml:"charge_step"`
	WanderSpread  float64    `yaml:"wander_spread"`

	RewardCharged  float64 `yaml:"reward_charged"`
	RewardDepleted float64 `yaml:"reward_depleted"`
	RewardSurvival float64 `yaml:"reward_survival"`
}

type Sync struct {
	PushMinIntervalMs int `yaml:"push_min_interval_ms"`
	PollIntervalMs    int `yaml:"poll_interval_ms"`
	TrainTickMs       int `yaml:"train_tick_ms"`
	TelemetryTickMs   int `yaml:"telemetry_tick_ms"`
	PlannerTimeoutMs  int `yaml:"planner_timeout_ms"`
}

type SeedRobot struct {
	ID        string     `yaml:"id"`
	Position  [3]float64 `yaml:"position"`
	Battery   float64    `yaml:"battery"`
	RobotType string     `yaml:"robot_type"`
	Color     string     `yaml:"color"`
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Defaults mirrors configs/tuning.yaml; used when no tuning file is present.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:     "1.0",
		GridBoundary:        15,
		LowBatteryThreshold: 10,
		MoveBatteryCost:     5,
		SafetyRadius:        2.0,
		RL: RL{
			LearningRate:   0.1,
			DiscountFactor: 0.9,
			Epsilon:        0.1,
			ChargerPos:     [3]float64{10, 0, 10},
			CaptureRadius:  2.0,
			WanderDrain:    5,
			ChargeDrain:    2,
			ChargeStep:     0.2,
			WanderSpread:   5,
			RewardCharged:  100,
			RewardDepleted: -100,
			RewardSurvival: 1,
		},
		Sync: Sync{
			PushMinIntervalMs: 100,
			PollIntervalMs:    500,
			TrainTickMs:       50,
			TelemetryTickMs:   1000,
			PlannerTimeoutMs:  15000,
		},
		Roster: []SeedRobot{
			{ID: "A", Position: [3]float64{0, 0, 0}, Battery: 100, RobotType: "ironhog", Color: "hotpink"},
			{ID: "B", Position: [3]float64{-5, 0, 5}, Battery: 100, RobotType: "titan", Color: "cyan"},
		},
	}
}
