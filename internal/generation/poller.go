package generation

import (
	"context"
	"log/slog"
	"time"

	"dreamframe/internal/apperrors"
	"dreamframe/internal/veo"
)

// Prober performs a single status lookup for an operation.
type Prober interface {
	Probe(ctx context.Context, op *veo.Operation) (*veo.PollAttempt, error)
}

// Poller drives the polling loop for one operation: a flat interval
// between probes, strictly one probe in flight at a time, and an
// overall deadline anchored at the operation's submission time.
type Poller struct {
	prober   Prober
	interval time.Duration
	deadline time.Duration
	logger   *slog.Logger
}

// NewPoller creates a poller. Zero interval/deadline use defaults.
func NewPoller(prober Prober, interval, deadline time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if deadline <= 0 {
		deadline = 4 * time.Hour
	}
	return &Poller{
		prober:   prober,
		interval: interval,
		deadline: deadline,
		logger:   slog.With("component", "poller"),
	}
}

// Wait polls until the operation reaches a terminal state, the deadline
// passes, or ctx is cancelled. The deadline is checked at the top of
// every iteration, so a probe never starts after the budget is spent.
// Probe failures are transient: the operation may not be visible on any
// endpoint yet, or the backend hiccuped, so the loop keeps going.
func (p *Poller) Wait(ctx context.Context, op *veo.Operation) (*veo.PollAttempt, error) {
	logger := p.logger.With("handle", op.Handle, "model", op.SubmittedVia)
	attempts := 0

	for {
		if elapsed := time.Since(op.CreatedAt); elapsed >= p.deadline {
			logger.Warn("Polling deadline exceeded",
				"attempts", attempts,
				"elapsed", elapsed.Round(time.Second))
			return nil, apperrors.TimedOut(elapsed)
		}

		attempts++
		attempt, err := p.prober.Probe(ctx, op)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Status probe failed, will retry",
				"attempt", attempts,
				"error", err)
		} else if attempt.Done() {
			logger.Info("Operation reached terminal state",
				"attempts", attempts,
				"strategy", attempt.Strategy,
				"elapsed", time.Since(op.CreatedAt).Round(time.Second))
			return attempt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.interval):
		}
	}
}
