// Package poll provides the bounded submit/poll loop shared by every
// asynchronous generation vendor. Each vendor maps its own status field onto
// a State; the loop, retry budget and timeout behavior live here once.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// State is a normalized vendor job status.
type State string

const (
	StateQueued     State = "queued"
	StatePreparing  State = "preparing"
	StateRunning    State = "running"
	StateInProgress State = "in_progress"
	StateStreaming  State = "streaming"
	StateSucceeded  State = "succeeded"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateTimeouted  State = "timeouted"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether no further transition can occur from s.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateCompleted, StateFailed, StateTimeouted, StateCancelled:
		return true
	}
	return false
}

// Succeeded reports whether s is a successful terminal state.
func (s State) Succeeded() bool {
	return s == StateSucceeded || s == StateCompleted
}

// Job is the minimal view of a vendor job the poll loop needs.
type Job interface {
	PollID() string
	PollState() State
	FailReason() string
}

// ErrTimeout is returned when the attempt budget is exhausted before the job
// reaches a terminal state.
var ErrTimeout = errors.New("polling attempt budget exhausted")

// GenerationError reports a vendor-side terminal failure.
type GenerationError struct {
	JobID  string
	State  State
	Reason string
}

func (e *GenerationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "unknown reason"
	}
	return fmt.Sprintf("generation job %s ended in state %q: %s", e.JobID, e.State, reason)
}

// Options controls one poll loop.
type Options struct {
	MaxAttempts int
	Interval    time.Duration

	// OnPoll is invoked after the initial submit and after every status
	// refresh. It must not block; slow observers stall the loop.
	OnPoll func(job Job, attempt int)
}

// UntilTerminal submits a job once, then refreshes its status every Interval
// until it reaches a terminal state or the attempt budget runs out. A
// successful terminal state yields the final job; a vendor failure yields a
// *GenerationError and exhausting MaxAttempts yields ErrTimeout.
func UntilTerminal[J Job](
	ctx context.Context,
	submit func(ctx context.Context) (J, error),
	query func(ctx context.Context, id string) (J, error),
	opts Options,
) (J, error) {
	var zero J

	job, err := submit(ctx)
	if err != nil {
		return zero, err
	}
	if opts.OnPoll != nil {
		opts.OnPoll(job, 0)
	}

	for attempt := 1; ; attempt++ {
		state := job.PollState()
		if state.Terminal() {
			if state.Succeeded() {
				return job, nil
			}
			return zero, &GenerationError{
				JobID:  job.PollID(),
				State:  state,
				Reason: job.FailReason(),
			}
		}

		if attempt > opts.MaxAttempts {
			return zero, fmt.Errorf("job %s still %q after %d attempts: %w",
				job.PollID(), state, opts.MaxAttempts, ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(opts.Interval):
		}

		job, err = query(ctx, job.PollID())
		if err != nil {
			return zero, err
		}
		if opts.OnPoll != nil {
			opts.OnPoll(job, attempt)
		}
	}
}
