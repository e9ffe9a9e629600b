package veo

import "time"

// Strategy identifies which status-lookup shape resolved an operation.
type Strategy string

const (
	// StrategyCandidate is a model-scoped operations lookup.
	StrategyCandidate Strategy = "candidate"
	// StrategyGeneric is the location-scoped operations lookup used
	// after every candidate-scoped shape came up empty.
	StrategyGeneric Strategy = "generic"
)

// SubmitParams are the generation parameters forwarded to the backend.
type SubmitParams struct {
	Prompt          string
	SampleCount     int
	AspectRatio     string
	DurationSeconds int
	Resolution      string
}

// Operation is a handle to an accepted long-running generation job.
type Operation struct {
	// Handle is the opaque trailing segment of the backend's operation
	// resource name, sufficient to reconstruct every lookup URL.
	Handle string `json:"handle"`
	// SubmittedVia is the candidate that accepted the submission.
	SubmittedVia string `json:"submittedVia"`
	// CreatedAt anchors the polling deadline.
	CreatedAt time.Time `json:"createdAt"`
}

// PollAttempt is the outcome of one successful status probe.
type PollAttempt struct {
	// Strategy records which lookup shape returned the operation.
	Strategy Strategy `json:"strategy"`
	// Candidate is the model that resolved the lookup. Empty when the
	// generic strategy resolved it.
	Candidate string `json:"candidate,omitempty"`
	// Payload is the operation document as returned by the backend.
	Payload *OperationPayload `json:"payload"`
}

// Done reports whether the probed operation reached a terminal state.
func (a *PollAttempt) Done() bool {
	return a != nil && a.Payload != nil && a.Payload.Done
}
