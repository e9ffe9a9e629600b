package generation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"dreamframe/internal/apperrors"
	"dreamframe/internal/veo"
)

// scriptedProber returns canned probe results in order; the final entry
// repeats once the script is exhausted.
type scriptedProber struct {
	script []probeStep
	calls  atomic.Int32
}

type probeStep struct {
	attempt *veo.PollAttempt
	err     error
}

func (p *scriptedProber) Probe(ctx context.Context, op *veo.Operation) (*veo.PollAttempt, error) {
	i := int(p.calls.Add(1)) - 1
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	step := p.script[i]
	return step.attempt, step.err
}

func pendingAttempt() *veo.PollAttempt {
	return &veo.PollAttempt{
		Strategy: veo.StrategyCandidate,
		Payload:  &veo.OperationPayload{Done: false},
	}
}

func doneAttempt(uri string) *veo.PollAttempt {
	return &veo.PollAttempt{
		Strategy: veo.StrategyCandidate,
		Payload: &veo.OperationPayload{
			Done: true,
			Response: &veo.PredictResult{
				Videos: []veo.Video{{GCSURI: uri}},
			},
		},
	}
}

func TestPoller_TerminalOnFirstProbe(t *testing.T) {
	t.Parallel()

	prober := &scriptedProber{script: []probeStep{
		{attempt: doneAttempt("gs://bucket/clip.mp4")},
	}}
	p := NewPoller(prober, time.Millisecond, time.Hour)

	attempt, err := p.Wait(context.Background(), &veo.Operation{Handle: "op-1", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !attempt.Done() {
		t.Error("expected terminal attempt")
	}
	if prober.calls.Load() != 1 {
		t.Errorf("expected 1 probe, got %d", prober.calls.Load())
	}
}

func TestPoller_PendingThenTerminal(t *testing.T) {
	t.Parallel()

	prober := &scriptedProber{script: []probeStep{
		{attempt: pendingAttempt()},
		{attempt: pendingAttempt()},
		{attempt: pendingAttempt()},
		{attempt: doneAttempt("gs://bucket/clip.mp4")},
	}}
	p := NewPoller(prober, time.Millisecond, time.Hour)

	attempt, err := p.Wait(context.Background(), &veo.Operation{Handle: "op-1", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !attempt.Done() {
		t.Error("expected terminal attempt")
	}
	if got := prober.calls.Load(); got != 4 {
		t.Errorf("expected 4 probes, got %d", got)
	}
}

func TestPoller_ProbeErrorsAreTransient(t *testing.T) {
	t.Parallel()

	prober := &scriptedProber{script: []probeStep{
		{err: fmt.Errorf("%w: handle op-1", veo.ErrOperationNotFound)},
		{err: errors.New("backend returned HTTP 503")},
		{attempt: doneAttempt("gs://bucket/clip.mp4")},
	}}
	p := NewPoller(prober, time.Millisecond, time.Hour)

	attempt, err := p.Wait(context.Background(), &veo.Operation{Handle: "op-1", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Wait() error = %v, probe failures should be retried", err)
	}
	if !attempt.Done() {
		t.Error("expected terminal attempt after transient failures")
	}
	if got := prober.calls.Load(); got != 3 {
		t.Errorf("expected 3 probes, got %d", got)
	}
}

func TestPoller_DeadlineCheckedBeforeProbing(t *testing.T) {
	t.Parallel()

	prober := &scriptedProber{script: []probeStep{
		{attempt: doneAttempt("gs://bucket/clip.mp4")},
	}}
	p := NewPoller(prober, time.Millisecond, time.Hour)

	op := &veo.Operation{Handle: "op-1", CreatedAt: time.Now().Add(-2 * time.Hour)}
	_, err := p.Wait(context.Background(), op)
	if !errors.Is(err, apperrors.ErrTimedOut) {
		t.Fatalf("Wait() error = %v, want ErrTimedOut", err)
	}
	if prober.calls.Load() != 0 {
		t.Errorf("expected no probes after the deadline, got %d", prober.calls.Load())
	}
}

func TestPoller_DeadlineDuringPolling(t *testing.T) {
	t.Parallel()

	prober := &scriptedProber{script: []probeStep{
		{attempt: pendingAttempt()},
	}}
	p := NewPoller(prober, time.Millisecond, 20*time.Millisecond)

	op := &veo.Operation{Handle: "op-1", CreatedAt: time.Now()}
	_, err := p.Wait(context.Background(), op)
	if !errors.Is(err, apperrors.ErrTimedOut) {
		t.Fatalf("Wait() error = %v, want ErrTimedOut", err)
	}
	if prober.calls.Load() == 0 {
		t.Error("expected at least one probe before the deadline")
	}
}

func TestPoller_ContextCancelled(t *testing.T) {
	t.Parallel()

	prober := &scriptedProber{script: []probeStep{
		{attempt: pendingAttempt()},
	}}
	p := NewPoller(prober, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Wait(ctx, &veo.Operation{Handle: "op-1", CreatedAt: time.Now()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
}
