package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"dreamframe/internal/apperrors"
	"dreamframe/internal/dispatcher"
	"dreamframe/internal/observability"
	"dreamframe/internal/veo"
)

// Validation limits
const (
	maxPromptLength    = 4096
	maxSampleCount     = 4
	maxDurationSeconds = 8
	maxHandleLength    = 256
	maxCallbackEvents  = 16
)

var allowedAspectRatios = []string{"16:9", "9:16"}

var allowedResolutions = []string{"720p", "1080p"}

// handlePattern allows the opaque operation handles the backend mints
var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Backend abstracts the remote generation API.
type Backend interface {
	Submit(ctx context.Context, params veo.SubmitParams) (*veo.Operation, error)
	Probe(ctx context.Context, op *veo.Operation) (*veo.PollAttempt, error)
	Registry() veo.Registry
}

// Retriever persists a completed generation's media locally and
// returns the local path.
type Retriever interface {
	Retrieve(ctx context.Context, handle string, result *veo.PredictResult) (string, error)
}

// ServiceOptions carries the service's optional collaborators.
type ServiceOptions struct {
	Dispatcher  dispatcher.Dispatcher
	Retriever   Retriever
	Metrics     *observability.Metrics
	EventSource string
}

// Service manages the generation lifecycle: submit, poll to a terminal
// state, classify, and notify.
//
// The Service is stateless - the backend's operation handle is the only
// identity a generation has, so any instance can probe any operation.
type Service struct {
	backend Backend
	poller  *Poller
	opts    ServiceOptions
}

// NewService creates a new generation service.
func NewService(backend Backend, poller *Poller, opts ServiceOptions) *Service {
	if opts.EventSource == "" {
		opts.EventSource = "dreamframe/video-service"
	}
	return &Service{
		backend: backend,
		poller:  poller,
		opts:    opts,
	}
}

// Generate validates the request, submits it, and blocks until the
// operation reaches a terminal state or the polling deadline passes.
// Note: This method applies defaults to the request before validation.
func (s *Service) Generate(ctx context.Context, req *Request) (*Response, error) {
	applyDefaults(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	op, err := s.backend.Submit(ctx, veo.SubmitParams{
		Prompt:          req.Prompt,
		SampleCount:     req.SampleCount,
		AspectRatio:     req.AspectRatio,
		DurationSeconds: req.DurationSeconds,
		Resolution:      req.Resolution,
	})
	if err != nil {
		slog.Error("Generation failed to start", "error", err)
		return nil, err
	}

	logger := slog.With("handle", op.Handle, "model", op.SubmittedVia)
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordGenerationStarted(ctx, op.SubmittedVia)
	}
	logger.Info("Generation submitted")

	result := s.await(ctx, op)
	s.finish(ctx, op, req, result)

	if result.Err != nil {
		logger.Warn("Generation did not succeed", "outcome", result.Outcome, "error", result.Err)
		return nil, result.Err
	}

	resp := &Response{
		OperationID: op.Handle,
		Status:      OutcomeSuccess,
		VideoURI:    result.VideoURI,
		Endpoint:    op.SubmittedVia,
	}

	if s.opts.Retriever != nil {
		path, err := s.opts.Retriever.Retrieve(ctx, op.Handle, result.Response)
		if err != nil {
			// The generation itself succeeded; a failed local copy is
			// reported but does not fail the request.
			logger.Warn("Media retrieval failed", "error", err)
		} else {
			resp.MediaPath = path
		}
	}

	logger.Info("Generation completed", "videoUri", resp.VideoURI)
	return resp, nil
}

// CheckOperation performs one status probe for an operation handle and
// returns the raw classified state without waiting for completion.
func (s *Service) CheckOperation(ctx context.Context, operationID string) (*ProbeResponse, error) {
	if err := validateHandle(operationID); err != nil {
		return nil, err
	}

	attempt, err := s.backend.Probe(ctx, &veo.Operation{Handle: operationID})
	if err != nil {
		if errors.Is(err, veo.ErrOperationNotFound) {
			return nil, apperrors.NotFound("operation", operationID)
		}
		return nil, apperrors.Internal("generation.check", err)
	}

	resp := &ProbeResponse{
		OperationID: operationID,
		Done:        attempt.Done(),
		Status:      OutcomePending,
		Strategy:    string(attempt.Strategy),
		Candidate:   attempt.Candidate,
	}
	if attempt.Done() {
		result := classify(attempt)
		resp.Status = result.Outcome
		resp.VideoURI = result.VideoURI
		if result.Err != nil {
			resp.Error = result.Err.Error()
		}
	}
	return resp, nil
}

// Candidates returns the model-endpoint candidates in priority order.
func (s *Service) Candidates() []string {
	return s.backend.Registry().Candidates()
}

// await polls the operation to a terminal state and classifies it.
func (s *Service) await(ctx context.Context, op *veo.Operation) *Result {
	attempt, err := s.poller.Wait(ctx, op)
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, apperrors.ErrTimedOut) {
			outcome = OutcomeTimeout
		}
		return &Result{Outcome: outcome, Err: err}
	}
	return classify(attempt)
}

// finish records completion metrics and dispatches the callback event.
func (s *Service) finish(ctx context.Context, op *veo.Operation, req *Request, result *Result) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordGenerationCompleted(ctx, op.SubmittedVia, result.Outcome,
			time.Since(op.CreatedAt).Seconds())
	}

	if s.opts.Dispatcher == nil || req.Callback == nil || req.Callback.URL == "" {
		return
	}
	event := buildEvent(s.opts.EventSource, op, result)
	if !eventAllowed(event.Type, req.Callback.Events) {
		return
	}
	err := s.opts.Dispatcher.Dispatch(&dispatcher.Event{
		Payload:     event,
		Destination: req.Callback.URL,
		SigningKey:  req.Callback.Key,
	})
	if err != nil {
		slog.Warn("Callback dispatch failed", "handle", op.Handle, "error", err)
	}
}

// applyDefaults sets default values for unspecified request fields.
func applyDefaults(req *Request) {
	if req.SampleCount <= 0 {
		req.SampleCount = 1
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}
	if req.DurationSeconds <= 0 {
		req.DurationSeconds = 5
	}
	if req.Resolution == "" {
		req.Resolution = "720p"
	}
}

// validate validates a generation request. Does not modify the request.
func (s *Service) validate(req *Request) error {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return apperrors.Validation("prompt", "prompt is required")
	}
	if len(req.Prompt) > maxPromptLength {
		return apperrors.Validation("prompt", fmt.Sprintf("prompt exceeds maximum length of %d", maxPromptLength))
	}

	if req.SampleCount > maxSampleCount {
		return apperrors.Validation("sampleCount", fmt.Sprintf("sample count exceeds maximum of %d", maxSampleCount))
	}

	if req.DurationSeconds > maxDurationSeconds {
		return apperrors.Validation("durationSeconds", fmt.Sprintf("duration exceeds maximum of %d seconds", maxDurationSeconds))
	}

	if !slices.Contains(allowedAspectRatios, req.AspectRatio) {
		return apperrors.Validation("aspectRatio", fmt.Sprintf("aspect ratio must be one of %v", allowedAspectRatios))
	}

	if !slices.Contains(allowedResolutions, req.Resolution) {
		return apperrors.Validation("resolution", fmt.Sprintf("resolution must be one of %v", allowedResolutions))
	}

	// Validate callback
	if req.Callback != nil {
		if req.Callback.URL != "" {
			if err := validateURL(req.Callback.URL); err != nil {
				return apperrors.Validation("callback.url", fmt.Sprintf("invalid callback URL: %v", err))
			}
		}
		if len(req.Callback.Events) > maxCallbackEvents {
			return apperrors.Validation("callback.events", fmt.Sprintf("callback events exceed maximum of %d", maxCallbackEvents))
		}
	}

	return nil
}

func validateHandle(operationID string) error {
	if operationID == "" {
		return apperrors.Validation("operationId", "operation ID is required")
	}
	if len(operationID) > maxHandleLength {
		return apperrors.Validation("operationId", fmt.Sprintf("operation ID exceeds maximum length of %d", maxHandleLength))
	}
	if !handlePattern.MatchString(operationID) {
		return apperrors.Validation("operationId", "operation ID contains invalid characters")
	}
	return nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL")
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
