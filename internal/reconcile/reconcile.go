// Package reconcile synchronizes local fleet state with the shared
// room store. Sync is best-effort: last write wins per field per poll,
// and the only conflict rule is that inbound data never overwrites the
// locally-controlled robot.
package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/sim/fleet"
	"fleetmind.ai/internal/store"
)

const (
	DefaultRoom   = "lobby"
	roomKeyPrefix = "fleet:room:"
)

func RoomKey(room string) string {
	if room == "" {
		room = DefaultRoom
	}
	return roomKeyPrefix + room
}

// MergeRemote folds a room's stored robot list into the local fleet.
// Remote entries matching a local id are shallow-merged field by field
// (omitted cosmetic fields keep their local values); unmatched ids are
// appended verbatim. The locally-controlled robot is never touched.
func MergeRemote(local fleet.Fleet, localID string, remote []protocol.RobotSnapshot) fleet.Fleet {
	out := local.Clone()
	for _, snap := range remote {
		if snap.ID == "" || snap.ID == localID {
			continue
		}
		idx := out.Index(snap.ID)
		if idx < 0 {
			out = append(out, fleet.FromSnapshot(snap))
			continue
		}
		r := out[idx]
		r.Position = snap.Position
		r.Battery = snap.Battery
		if snap.RobotType != "" {
			r.RobotType = snap.RobotType
		}
		if snap.Color != "" {
			r.Color = snap.Color
		}
		out[idx] = r
	}
	return out
}

// Syncer drives outbound pushes and inbound polls for one session's
// room. Not safe for concurrent use; the session loop owns it.
type Syncer struct {
	store   store.Store
	key     string
	localID string

	minPushInterval time.Duration
	lastPush        time.Time
	now             func() time.Time
}

func NewSyncer(st store.Store, room, localID string, minPushInterval time.Duration) *Syncer {
	return &Syncer{
		store:           st,
		key:             RoomKey(room),
		localID:         localID,
		minPushInterval: minPushInterval,
		now:             time.Now,
	}
}

// Push publishes the locally-controlled robot's snapshot into the room
// via read-modify-write, at most once per minPushInterval. The rest of
// the fleet is never pushed; other sessions own their robots. Reports
// whether a write happened.
func (s *Syncer) Push(ctx context.Context, local fleet.Fleet) bool {
	now := s.now()
	if !s.lastPush.IsZero() && now.Sub(s.lastPush) < s.minPushInterval {
		return false
	}
	idx := local.Index(s.localID)
	if idx < 0 {
		return false
	}
	mine := local[idx : idx+1].Snapshots()[0]

	state := s.load(ctx)
	replaced := false
	for i := range state.Robots {
		if state.Robots[i].ID == s.localID {
			state.Robots[i] = mine
			replaced = true
			break
		}
	}
	if !replaced {
		state.Robots = append(state.Robots, mine)
	}
	state.Timestamp = now.UnixMilli()

	buf, err := json.Marshal(state)
	if err != nil {
		return false
	}
	if err := s.store.Set(ctx, s.key, string(buf)); err != nil {
		// Store failures degrade silently; the next push retries.
		return false
	}
	s.lastPush = now
	return true
}

// Poll fetches the room's robot list and merges every non-local entry
// into the fleet. Reports whether remote state was found.
func (s *Syncer) Poll(ctx context.Context, local fleet.Fleet) (fleet.Fleet, bool) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil || !ok {
		return local, false
	}
	var state protocol.RoomState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return local, false
	}
	return MergeRemote(local, s.localID, state.Robots), true
}

func (s *Syncer) load(ctx context.Context) protocol.RoomState {
	var state protocol.RoomState
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil || !ok {
		return state
	}
	// A corrupt payload starts the room over rather than failing the push.
	_ = json.Unmarshal([]byte(raw), &state)
	return state
}
