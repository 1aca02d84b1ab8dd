package reconcile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/sim/fleet"
	"fleetmind.ai/internal/store"
)

func TestRoomKey(t *testing.T) {
	if got := RoomKey("warehouse-7"); got != "fleet:room:warehouse-7" {
		t.Fatalf("room key: got %q", got)
	}
	if got := RoomKey(""); got != "fleet:room:lobby" {
		t.Fatalf("default room key: got %q", got)
	}
}

func TestMergeRemote_NeverClobbersLocalRobot(t *testing.T) {
	local := fleet.Fleet{
		{ID: "A", Position: [3]float64{1, 0, 1}, Battery: 80, RobotType: "ironhog"},
		{ID: "B", Position: [3]float64{-5, 0, 5}, Battery: 60},
	}
	remote := []protocol.RobotSnapshot{
		{ID: "A", Position: [3]float64{9, 0, 9}, Battery: 10},
		{ID: "B", Position: [3]float64{2, 0, 2}, Battery: 55},
		{ID: "C", Position: [3]float64{0, 0, -8}, Battery: 100, RobotType: "spectre"},
	}

	out := MergeRemote(local, "A", remote)

	if got := out[out.Index("A")]; got.Position != [3]float64{1, 0, 1} || got.Battery != 80 {
		t.Fatalf("local robot clobbered: %+v", got)
	}
	if got := out[out.Index("B")]; got.Position != [3]float64{2, 0, 2} || got.Battery != 55 {
		t.Fatalf("remote robot not merged: %+v", got)
	}
	if got := out.Index("C"); got < 0 || out[got].RobotType != "spectre" {
		t.Fatalf("unmatched remote id not appended: %v", out)
	}
	// Copy-on-write: the input fleet is unchanged.
	if local[1].Position != [3]float64{-5, 0, 5} || len(local) != 2 {
		t.Fatalf("input fleet mutated: %+v", local)
	}
}

func TestMergeRemote_ShallowMergeKeepsLocalCosmetics(t *testing.T) {
	local := fleet.Fleet{
		{ID: "A"},
		{ID: "B", Position: [3]float64{1, 0, 1}, Battery: 50, RobotType: "titan", Color: "cyan"},
	}
	remote := []protocol.RobotSnapshot{{ID: "B", Position: [3]float64{3, 0, 3}, Battery: 45}}

	out := MergeRemote(local, "A", remote)
	got := out[out.Index("B")]
	if got.RobotType != "titan" || got.Color != "cyan" {
		t.Fatalf("omitted remote fields must keep local values: %+v", got)
	}
	if got.Position != [3]float64{3, 0, 3} || got.Battery != 45 {
		t.Fatalf("present remote fields must win: %+v", got)
	}
}

func TestSyncer_PushOnlyLocalSnapshot(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	// Another session already published robot "B".
	seed, _ := json.Marshal(protocol.RoomState{Robots: []protocol.RobotSnapshot{
		{ID: "B", Position: [3]float64{7, 0, 7}, Battery: 42},
	}})
	_ = st.Set(ctx, RoomKey("r1"), string(seed))

	s := NewSyncer(st, "r1", "A", 100*time.Millisecond)
	local := fleet.Fleet{
		{ID: "A", Position: [3]float64{1, 0, 1}, Battery: 90},
		{ID: "B", Position: [3]float64{0, 0, 0}, Battery: 999}, // stale local view
	}
	if !s.Push(ctx, local) {
		t.Fatalf("push must succeed")
	}

	raw, _, _ := st.Get(ctx, RoomKey("r1"))
	var state protocol.RoomState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		t.Fatalf("stored payload: %v", err)
	}
	if len(state.Robots) != 2 {
		t.Fatalf("robots: %+v", state.Robots)
	}
	for _, r := range state.Robots {
		switch r.ID {
		case "A":
			if r.Position != [3]float64{1, 0, 1} || r.Battery != 90 {
				t.Fatalf("own snapshot wrong: %+v", r)
			}
		case "B":
			if r.Battery != 42 {
				t.Fatalf("push must not overwrite other sessions' robots: %+v", r)
			}
		}
	}
	if state.Timestamp == 0 {
		t.Fatalf("timestamp missing")
	}
}

func TestSyncer_PushThrottled(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := NewSyncer(st, "r1", "A", 100*time.Millisecond)

	clock := time.Unix(0, 0)
	s.now = func() time.Time { return clock }

	local := fleet.Fleet{{ID: "A", Battery: 100}}
	if !s.Push(ctx, local) {
		t.Fatalf("first push must go through")
	}
	clock = clock.Add(50 * time.Millisecond)
	if s.Push(ctx, local) {
		t.Fatalf("push inside the minimum interval must be suppressed")
	}
	clock = clock.Add(50 * time.Millisecond)
	if !s.Push(ctx, local) {
		t.Fatalf("push after the interval must go through")
	}
}

func TestSyncer_PollMergesRoom(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := NewSyncer(st, "r1", "A", time.Millisecond)

	local := fleet.Fleet{{ID: "A", Position: [3]float64{1, 0, 1}, Battery: 90}}

	// Empty room: nothing to merge.
	if _, ok := s.Poll(ctx, local); ok {
		t.Fatalf("empty room must report no remote state")
	}

	seed, _ := json.Marshal(protocol.RoomState{Robots: []protocol.RobotSnapshot{
		{ID: "A", Position: [3]float64{9, 0, 9}, Battery: 1},
		{ID: "C", Position: [3]float64{4, 0, 4}, Battery: 77},
	}, Timestamp: 123})
	_ = st.Set(ctx, RoomKey("r1"), string(seed))

	merged, ok := s.Poll(ctx, local)
	if !ok {
		t.Fatalf("poll must find the room")
	}
	if got := merged[merged.Index("A")]; got.Position != [3]float64{1, 0, 1} || got.Battery != 90 {
		t.Fatalf("own robot clobbered by poll: %+v", got)
	}
	if merged.Index("C") < 0 {
		t.Fatalf("remote robot not appended: %+v", merged)
	}
}

func TestSyncer_PollToleratesCorruptPayload(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	_ = st.Set(ctx, RoomKey("r1"), "{not json")

	s := NewSyncer(st, "r1", "A", time.Millisecond)
	local := fleet.Fleet{{ID: "A", Battery: 100}}
	merged, ok := s.Poll(ctx, local)
	if ok || len(merged) != 1 {
		t.Fatalf("corrupt payload must be ignored: ok=%v fleet=%+v", ok, merged)
	}
}
