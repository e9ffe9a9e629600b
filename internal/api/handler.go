// Package api provides the HTTP API handlers and routing for the video service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"dreamframe/internal/apperrors"
	"dreamframe/internal/generation"
	"dreamframe/internal/health"
	"dreamframe/internal/observability"
)

// maxRequestBodySize limits request body to 1MB to prevent memory exhaustion
const maxRequestBodySize = 1 << 20 // 1 MB

// GenerationService is the service surface the handlers need.
type GenerationService interface {
	Generate(ctx context.Context, req *generation.Request) (*generation.Response, error)
	CheckOperation(ctx context.Context, operationID string) (*generation.ProbeResponse, error)
	Candidates() []string
}

// Handler contains HTTP handlers for the video API
type Handler struct {
	svc     GenerationService
	metrics *observability.Metrics
	health  *health.Checker
}

// NewHandler creates a new API handler
func NewHandler(svc GenerationService, metrics *observability.Metrics, healthChecker *health.Checker) *Handler {
	return &Handler{
		svc:     svc,
		metrics: metrics,
		health:  healthChecker,
	}
}

// GenerateVideo handles POST /generate-video.
// The request blocks until the generation reaches a terminal state or
// the polling deadline passes, so responses may take hours.
func (h *Handler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent memory exhaustion
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req generation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Generate(r.Context(), &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// CheckOperation handles GET /check-operation/{operationId}
func (h *Handler) CheckOperation(w http.ResponseWriter, r *http.Request) {
	operationID := r.PathValue("operationId")
	if operationID == "" {
		h.writeError(w, http.StatusBadRequest, "Operation ID is required")
		return
	}

	resp, err := h.svc.CheckOperation(r.Context(), operationID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status          string   `json:"status"`
	Service         string   `json:"service"`
	ModelCandidates []string `json:"modelCandidates"`
}

// Health handles GET /health - basic service health plus the
// model-endpoint candidates in the order they are tried.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:          "healthy",
		Service:         "dreamframe-video-service",
		ModelCandidates: h.svc.Candidates(),
	})
}

// Livez handles GET /livez - liveness probe.
// Returns 200 if the process is alive. Does not check dependencies.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	response := h.health.Liveness(r.Context())
	h.writeJSON(w, http.StatusOK, response)
}

// Readyz handles GET /readyz - readiness probe.
// Returns 200 if the service is ready to accept traffic.
// Returns 503 if dependencies (token source) are unavailable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// handleError handles errors from service layer with appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		slog.Error("Internal error", "error", err, "path", r.URL.Path)
	} else {
		slog.Warn("Client error", "error", err, "path", r.URL.Path, "status", status)
	}
	h.writeError(w, status, err.Error())
}
