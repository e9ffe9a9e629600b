package veo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dreamframe/internal/apperrors"
	"dreamframe/internal/credentials"
)

// ErrOperationNotFound indicates that every known status-lookup shape,
// including the generic fallback, returned HTTP 404 for the handle. The
// operation may not exist, or the backend may not expose it yet.
var ErrOperationNotFound = errors.New("operation not found on any status endpoint")

const maxErrorBodyBytes = 2048

// MetricsRecorder receives backend call outcomes. Implementations must
// be safe for concurrent use.
type MetricsRecorder interface {
	RecordSubmitAttempt(ctx context.Context, candidate string, accepted bool)
	RecordProbe(ctx context.Context, strategy string, outcome string)
}

// Client talks to the remote video-generation backend. It hides the
// endpoint-candidate walk behind Submit and Probe so callers only see
// operations and poll attempts.
type Client struct {
	cfg      Config
	registry Registry
	creds    credentials.Provider
	client   *http.Client
	metrics  MetricsRecorder
	logger   *slog.Logger
}

// NewClient creates a backend client. metrics may be nil.
func NewClient(cfg Config, registry Registry, creds credentials.Provider, metrics MetricsRecorder) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:      cfg,
		registry: registry,
		creds:    creds,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		metrics: metrics,
		logger:  slog.With("component", "veo"),
	}
}

// Registry returns the client's candidate registry.
func (c *Client) Registry() Registry {
	return c.registry
}

// Submit walks the candidate registry in priority order and submits the
// generation request to each model endpoint until one accepts it. The
// first acceptance wins; no further candidates are tried. When every
// candidate rejects the request the returned error is quota-classified
// if any attempt was rate limited, exhaustion-classified otherwise.
func (c *Client) Submit(ctx context.Context, params SubmitParams) (*Operation, error) {
	if params.SampleCount <= 0 {
		params.SampleCount = 1
	}
	body, err := json.Marshal(predictRequest{
		Instances: []predictInstance{{Prompt: params.Prompt}},
		Parameters: predictParameters{
			SampleCount:     params.SampleCount,
			AspectRatio:     params.AspectRatio,
			DurationSeconds: params.DurationSeconds,
			Resolution:      params.Resolution,
		},
	})
	if err != nil {
		return nil, apperrors.Internal("veo.submit", err)
	}

	quotaSeen := false
	var lastErr error
	for _, candidate := range c.registry.Candidates() {
		op, err := c.submitOnce(ctx, candidate, body)
		if err == nil {
			c.recordSubmit(ctx, candidate, true)
			c.logger.Info("Submission accepted",
				"model", candidate,
				"handle", op.Handle)
			return op, nil
		}
		c.recordSubmit(ctx, candidate, false)
		if isStatus(err, http.StatusTooManyRequests) {
			quotaSeen = true
		}
		c.logger.Warn("Submission attempt failed",
			"model", candidate,
			"error", err)
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if quotaSeen {
		return nil, apperrors.QuotaExceeded("veo.submit")
	}
	return nil, apperrors.SubmissionExhausted(c.registry.Len(), lastErr)
}

func (c *Client) submitOnce(ctx context.Context, candidate string, body []byte) (*Operation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SubmitTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:predictLongRunning",
		c.cfg.BaseURL, c.cfg.ProjectID, c.cfg.Location, candidate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit to %s: %w", candidate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}

	var accepted predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		return nil, fmt.Errorf("decode submission response: %w", err)
	}
	handle := handleFromName(accepted.Name)
	if handle == "" {
		return nil, fmt.Errorf("submission response carried no operation name")
	}
	return &Operation{
		Handle:       handle,
		SubmittedVia: candidate,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Probe performs a single status lookup for op, walking every
// candidate-scoped endpoint in registry order and then the generic
// location-scoped endpoint. The first lookup to return an operation
// document wins. 404s and transport errors alike advance the walk;
// only once every shape is exhausted does Probe fail, returning
// ErrOperationNotFound when the backend uniformly answered 404 and the
// underlying error otherwise.
func (c *Client) Probe(ctx context.Context, op *Operation) (*PollAttempt, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		c.recordProbe(ctx, "", "error")
		return nil, fmt.Errorf("acquire token: %w", err)
	}

	all404 := true
	var lastErr error
	for _, candidate := range c.registry.Candidates() {
		url := fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s/operations/%s",
			c.cfg.BaseURL, c.cfg.ProjectID, c.cfg.Location, candidate, op.Handle)
		payload, err := c.fetchOperation(ctx, url, token)
		if err == nil {
			c.recordProbe(ctx, string(StrategyCandidate), "resolved")
			return &PollAttempt{
				Strategy:  StrategyCandidate,
				Candidate: candidate,
				Payload:   payload,
			}, nil
		}
		if !isStatus(err, http.StatusNotFound) {
			all404 = false
			c.logger.Warn("Status lookup failed",
				"model", candidate,
				"handle", op.Handle,
				"error", err)
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	url := fmt.Sprintf("%s/projects/%s/locations/%s/operations/%s",
		c.cfg.BaseURL, c.cfg.ProjectID, c.cfg.Location, op.Handle)
	payload, err := c.fetchOperation(ctx, url, token)
	if err == nil {
		c.recordProbe(ctx, string(StrategyGeneric), "resolved")
		return &PollAttempt{Strategy: StrategyGeneric, Payload: payload}, nil
	}
	if !isStatus(err, http.StatusNotFound) {
		all404 = false
		lastErr = err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if all404 {
		c.recordProbe(ctx, string(StrategyGeneric), "not_found")
		return nil, fmt.Errorf("%w: handle %s", ErrOperationNotFound, op.Handle)
	}
	c.recordProbe(ctx, string(StrategyGeneric), "error")
	return nil, fmt.Errorf("status lookup exhausted all endpoints: %w", lastErr)
}

func (c *Client) fetchOperation(ctx context.Context, url, token string) (*OperationPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch operation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}

	var payload OperationPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode operation payload: %w", err)
	}
	return &payload, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *Client) recordSubmit(ctx context.Context, candidate string, accepted bool) {
	if c.metrics != nil {
		c.metrics.RecordSubmitAttempt(ctx, candidate, accepted)
	}
}

func (c *Client) recordProbe(ctx context.Context, strategy, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordProbe(ctx, strategy, outcome)
	}
}

// handleFromName extracts the opaque handle from an operation resource
// name, the segment after the final slash.
func handleFromName(name string) string {
	if name == "" {
		return ""
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// statusError is a non-200 backend response.
type statusError struct {
	code int
	body string
}

func newStatusError(resp *http.Response) *statusError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("backend returned HTTP %d", e.code)
	}
	return fmt.Sprintf("backend returned HTTP %d: %s", e.code, e.body)
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == code
}
