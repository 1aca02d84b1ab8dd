package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session surface.
	ErrBusy = "E_BUSY"

	// Planner layer.
	ErrPlanner   = "E_PLANNER"
	ErrEmptyPlan = "E_EMPTY_PLAN"

	// Execution layer.
	ErrUnknownTarget = "E_UNKNOWN_TARGET"
	ErrLowBattery    = "E_LOW_BATTERY"
	ErrCollisionRisk = "E_COLLISION_RISK"

	// Persistence layer (absorbed by the fallback store; never user-visible).
	ErrStoreUnavailable = "E_STORE_UNAVAILABLE"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:  {},
	ErrBusy:             {},
	ErrPlanner:          {},
	ErrEmptyPlan:        {},
	ErrUnknownTarget:    {},
	ErrLowBattery:       {},
	ErrCollisionRisk:    {},
	ErrStoreUnavailable: {},
	ErrInternal:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
