// Package session runs one room's local simulation: a single-threaded
// loop that owns the fleet snapshot and serializes every mutation
// (command missions, RL training, telemetry drift, room sync) through
// discrete ticks. All state must be accessed only from the session
// loop goroutine.
package session

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	persistlog "fleetmind.ai/internal/persistence/log"
	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/reconcile"
	"fleetmind.ai/internal/sim/fleet"
	"fleetmind.ai/internal/sim/rl"
	"fleetmind.ai/internal/sim/tuning"
	"fleetmind.ai/internal/store"
)

// CommandProcessor is the plan/validate pipeline collaborator.
type CommandProcessor interface {
	Process(ctx context.Context, command string) protocol.CommandResult
}

type Config struct {
	Room         string
	LocalRobotID string
	Tuning       tuning.Tuning

	// Seed drives the RL and telemetry RNGs; 0 means wall-clock.
	Seed int64

	Processor CommandProcessor
	Store     store.Store
	Logger    *log.Logger

	// Optional persisted streams (may be nil).
	EventLog     *persistlog.EventLogger
	TelemetryLog *persistlog.TelemetryLogger
}

const logRingCap = 256

type commandReq struct {
	Text string
	Resp chan protocol.CommandResult
}

type commandOutcome struct {
	Result protocol.CommandResult
	Resp   chan protocol.CommandResult
}

type snapshotReq struct {
	Resp chan []protocol.RobotSnapshot
}

type modeReq struct {
	Training *bool
	Live     *bool
}

// Subscriber receives encoded protocol messages (FLEET, LOG, RESULT)
// for one websocket client. Sends are non-blocking; a slow client
// drops frames rather than stalling the loop.
type Subscriber struct {
	ID  string
	Out chan []byte
}

type Session struct {
	cfg    Config
	tune   tuning.Tuning
	logger *log.Logger

	fleet  fleet.Fleet
	engine fleet.Engine

	trainer *rl.Trainer
	rng     *rand.Rand

	syncer *reconcile.Syncer

	training bool
	live     bool
	inflight bool
	dirty    bool

	logRing []protocol.LogEvent
	subs    map[string]*Subscriber

	commands    chan commandReq
	outcomes    chan commandOutcome
	snapshots   chan snapshotReq
	modes       chan modeReq
	subscribe   chan *Subscriber
	unsubscribe chan string
	stop        chan struct{}
}

func New(cfg Config) *Session {
	t := cfg.Tuning
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	agent := rl.NewAgent(t.RL.LearningRate, t.RL.DiscountFactor, t.RL.Epsilon, rng)

	if cfg.Room == "" {
		cfg.Room = reconcile.DefaultRoom
	}
	if cfg.LocalRobotID == "" {
		cfg.LocalRobotID = "A"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Session{
		cfg:     cfg,
		tune:    t,
		logger:  cfg.Logger,
		fleet:   fleet.FromRoster(t.Roster),
		engine:  fleet.NewEngine(t),
		trainer: rl.NewTrainer(agent, t.RL, rng),
		rng:     rng,
		syncer: reconcile.NewSyncer(cfg.Store, cfg.Room, cfg.LocalRobotID,
			time.Duration(t.Sync.PushMinIntervalMs)*time.Millisecond),
		subs:        make(map[string]*Subscriber),
		commands:    make(chan commandReq, 4),
		outcomes:    make(chan commandOutcome, 1),
		snapshots:   make(chan snapshotReq, 4),
		modes:       make(chan modeReq, 4),
		subscribe:   make(chan *Subscriber, 4),
		unsubscribe: make(chan string, 4),
		stop:        make(chan struct{}),
	}
	s.appendLog(protocol.LogEvent{Role: "bot", Text: "FleetMind initialized. Waiting for commands..."})
	return s
}

func (s *Session) Room() string         { return s.cfg.Room }
func (s *Session) LocalRobotID() string { return s.cfg.LocalRobotID }

// Agent exposes the RL agent for inspection (trainer CLI, tests).
func (s *Session) Agent() *rl.Agent { return s.trainer.Agent() }

// SubmitCommand routes one free-form command through the loop. It
// blocks until the pipeline resolves and the missions are applied, or
// ctx is done.
func (s *Session) SubmitCommand(ctx context.Context, text string) protocol.CommandResult {
	req := commandReq{Text: text, Resp: make(chan protocol.CommandResult, 1)}
	select {
	case s.commands <- req:
	case <-ctx.Done():
		return protocol.ErrorResult(protocol.ErrInternal, "session unavailable")
	}
	select {
	case res := <-req.Resp:
		return res
	case <-ctx.Done():
		return protocol.ErrorResult(protocol.ErrInternal, "command timed out")
	}
}

// Snapshot returns the current fleet as wire snapshots.
func (s *Session) Snapshot(ctx context.Context) []protocol.RobotSnapshot {
	req := snapshotReq{Resp: make(chan []protocol.RobotSnapshot, 1)}
	select {
	case s.snapshots <- req:
	case <-ctx.Done():
		return nil
	}
	select {
	case resp := <-req.Resp:
		return resp
	case <-ctx.Done():
		return nil
	}
}

func (s *Session) SetTraining(on bool) { s.modes <- modeReq{Training: &on} }
func (s *Session) SetLive(on bool)     { s.modes <- modeReq{Live: &on} }

func (s *Session) Subscribe(sub *Subscriber) { s.subscribe <- sub }
func (s *Session) Unsubscribe(id string)     { s.unsubscribe <- id }

func (s *Session) Stop() { close(s.stop) }

func (s *Session) appendLog(ev protocol.LogEvent) {
	s.logRing = append(s.logRing, ev)
	if len(s.logRing) > logRingCap {
		s.logRing = s.logRing[len(s.logRing)-logRingCap:]
	}
	if s.cfg.EventLog != nil {
		if err := s.cfg.EventLog.WriteEvent(s.cfg.Room, ev); err != nil {
			s.logger.Printf("event log: %v", err)
		}
	}
	s.broadcast(protocol.LogMsg{
		Type:            protocol.TypeLog,
		ProtocolVersion: protocol.Version,
		Event:           ev,
	})
}

func (s *Session) broadcastFleet() {
	s.broadcast(protocol.FleetMsg{
		Type:            protocol.TypeFleet,
		ProtocolVersion: protocol.Version,
		Room:            s.cfg.Room,
		Robots:          s.fleet.Snapshots(),
	})
}

func (s *Session) broadcast(msg any) {
	if len(s.subs) == 0 {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, sub := range s.subs {
		select {
		case sub.Out <- b:
		default:
			// Slow consumer: drop the frame, never block the loop.
		}
	}
}
