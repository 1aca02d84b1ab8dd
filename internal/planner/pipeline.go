package planner

import (
	"context"
	"errors"
	"time"

	"fleetmind.ai/internal/nlp"
	"fleetmind.ai/internal/protocol"
)

// Pipeline is the command-to-mission workflow: normalize, plan against
// the model, validate. It is the whole of the §6 command-submission
// contract: the result is either a mission list or an error result.
type Pipeline struct {
	planner   *Planner
	validator Validator
	timeout   time.Duration
}

func NewPipeline(p *Planner, boundary float64, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Pipeline{
		planner:   p,
		validator: Validator{Boundary: boundary},
		timeout:   timeout,
	}
}

// Process runs one command end to end. It never returns a Go error:
// every failure mode folds into an error-action CommandResult so the
// caller can surface it as a log entry and move on.
func (pl *Pipeline) Process(ctx context.Context, command string) protocol.CommandResult {
	ctx, cancel := context.WithTimeout(ctx, pl.timeout)
	defer cancel()

	command = nlp.Normalize(command)

	missions, err := pl.planner.Plan(ctx, command)
	if err != nil {
		return resultFromErr(err)
	}
	validated, err := pl.validator.Validate(missions)
	if err != nil {
		return resultFromErr(err)
	}
	return protocol.CommandResult{Missions: validated}
}

func resultFromErr(err error) protocol.CommandResult {
	var pe *Error
	if errors.As(err, &pe) {
		return protocol.ErrorResult(pe.Code, pe.Message)
	}
	return protocol.ErrorResult(protocol.ErrInternal, err.Error())
}
