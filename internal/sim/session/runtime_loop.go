package session

import (
	"context"
	"encoding/json"
	"time"

	persistlog "fleetmind.ai/internal/persistence/log"
	"fleetmind.ai/internal/protocol"
)

// Run drives the session until ctx is done or Stop is called. Each
// timer fires at its own period; the loop tolerates any interleaving
// because every step is an atomic read-modify-write over the whole
// fleet snapshot.
func (s *Session) Run(ctx context.Context) error {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	trainTicker := time.NewTicker(ms(s.tune.Sync.TrainTickMs))
	defer trainTicker.Stop()
	telemetryTicker := time.NewTicker(ms(s.tune.Sync.TelemetryTickMs))
	defer telemetryTicker.Stop()
	pushTicker := time.NewTicker(ms(s.tune.Sync.PushMinIntervalMs))
	defer pushTicker.Stop()
	pollTicker := time.NewTicker(ms(s.tune.Sync.PollIntervalMs))
	defer pollTicker.Stop()

	// Restore any prior room state before the first tick.
	s.stepPoll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case req := <-s.commands:
			s.handleCommand(ctx, req)
		case out := <-s.outcomes:
			s.handleOutcome(out)
		case req := <-s.snapshots:
			req.Resp <- s.fleet.Snapshots()
		case m := <-s.modes:
			s.handleMode(m)
		case sub := <-s.subscribe:
			s.handleSubscribe(sub)
		case id := <-s.unsubscribe:
			delete(s.subs, id)
		case <-trainTicker.C:
			s.stepTrain()
		case <-telemetryTicker.C:
			s.stepTelemetry()
		case <-pushTicker.C:
			s.stepPush(ctx)
		case <-pollTicker.C:
			s.stepPoll(ctx)
		}
	}
}

// handleCommand starts the plan/validate pipeline off-thread. Only one
// command may be in flight; overlapping submissions are refused so a
// command always observes the full effects of the previous one.
func (s *Session) handleCommand(ctx context.Context, req commandReq) {
	if s.inflight {
		req.Resp <- protocol.ErrorResult(protocol.ErrBusy, "A command is already being processed.")
		return
	}
	s.inflight = true
	s.appendLog(protocol.LogEvent{Role: "user", Text: req.Text})

	go func() {
		res := s.cfg.Processor.Process(ctx, req.Text)
		select {
		case s.outcomes <- commandOutcome{Result: res, Resp: req.Resp}:
		case <-ctx.Done():
		}
	}()
}

// handleOutcome applies a resolved pipeline result to the fleet.
// Missions run strictly in planner order, each observing the fleet
// produced by the previous one.
func (s *Session) handleOutcome(out commandOutcome) {
	s.inflight = false
	res := out.Result

	if res.Action == protocol.ActionError || res.Missions == nil {
		msg := res.Message
		if msg == "" {
			msg = "Unknown error."
		}
		s.appendLog(protocol.LogEvent{Role: "bot", Code: res.Code, Text: msg})
		out.Resp <- res
		return
	}

	next, events := s.engine.ApplyAll(res.Missions, s.fleet)
	s.fleet = next
	s.dirty = true
	for _, ev := range events {
		s.appendLog(ev)
	}
	s.broadcastFleet()
	out.Resp <- res
}

// stepTrain runs one Q-learning tick against the locally-controlled
// robot. Only that robot trains; the rest of the fleet is untouched.
func (s *Session) stepTrain() {
	if !s.training {
		return
	}
	idx := s.fleet.Index(s.cfg.LocalRobotID)
	if idx < 0 {
		return
	}
	next := s.fleet.Clone()
	r, event := s.trainer.Step(next[idx])
	next[idx] = r
	s.fleet = next
	s.dirty = true
	if event != nil {
		s.appendLog(*event)
	}
	s.broadcastFleet()
}

// stepTelemetry jitters the fleet in live mode (mock sensor stream)
// and records a telemetry sample. Live drift pauses while training so
// the RL episode state stays clean.
func (s *Session) stepTelemetry() {
	if s.live && !s.training {
		next := s.fleet.Clone()
		for i := range next {
			next[i].Position[0] += (s.rng.Float64() - 0.5) * 0.5
			next[i].Position[2] += (s.rng.Float64() - 0.5) * 0.5
			next[i].Battery -= 0.1
			if next[i].Battery < 0 {
				next[i].Battery = 0
			}
		}
		s.fleet = next
		s.dirty = true
		s.broadcastFleet()
	}

	if s.cfg.TelemetryLog != nil && len(s.fleet) > 0 {
		var sum float64
		for _, r := range s.fleet {
			sum += r.Battery
		}
		sample := persistlog.TelemetrySample{
			TS:         time.Now().UTC().Format(time.RFC3339Nano),
			Room:       s.cfg.Room,
			Robots:     len(s.fleet),
			AvgBattery: sum / float64(len(s.fleet)),
		}
		if err := s.cfg.TelemetryLog.WriteSample(sample); err != nil {
			s.logger.Printf("telemetry log: %v", err)
		}
	}
}

// stepPush publishes the locally-controlled robot when it has changed
// since the last push; the syncer enforces the minimum interval.
func (s *Session) stepPush(ctx context.Context) {
	if !s.dirty {
		return
	}
	if s.syncer.Push(ctx, s.fleet) {
		s.dirty = false
	}
}

// stepPoll merges remote room state into the fleet. The local robot is
// never overwritten (reconcile.MergeRemote owns that rule).
func (s *Session) stepPoll(ctx context.Context) {
	next, ok := s.syncer.Poll(ctx, s.fleet)
	if !ok {
		return
	}
	s.fleet = next
	s.broadcastFleet()
}

func (s *Session) handleMode(m modeReq) {
	if m.Training != nil && *m.Training != s.training {
		s.training = *m.Training
		if s.training {
			s.appendLog(protocol.LogEvent{Role: "bot", Text: "RL training started."})
		} else {
			s.appendLog(protocol.LogEvent{Role: "bot", Text: "RL training stopped."})
		}
	}
	if m.Live != nil {
		s.live = *m.Live
	}
}

func (s *Session) handleSubscribe(sub *Subscriber) {
	s.subs[sub.ID] = sub

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sub.ID,
		Room:            s.cfg.Room,
		LocalRobotID:    s.cfg.LocalRobotID,
		Robots:          s.fleet.Snapshots(),
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return
	}
	select {
	case sub.Out <- b:
	default:
	}
}
