package generation

// Request represents a request to generate a video
type Request struct {
	Prompt          string    `json:"prompt"`
	SampleCount     int       `json:"sampleCount,omitempty"`
	AspectRatio     string    `json:"aspectRatio,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	Resolution      string    `json:"resolution,omitempty"`
	Callback        *Callback `json:"callback,omitempty"`
}

// Callback represents callback configuration for a generation
type Callback struct {
	URL    string   `json:"url"`
	Events []string `json:"events,omitempty"`
	Key    string   `json:"key,omitempty"` // HMAC signing key
}

// Response represents the response for a completed generation
type Response struct {
	OperationID string `json:"operationId"`
	Status      string `json:"status"` // "success"
	VideoURI    string `json:"videoUri,omitempty"`
	MediaPath   string `json:"mediaPath,omitempty"` // local copy, when retrieval is enabled
	Endpoint    string `json:"endpoint"`            // candidate that accepted the submission
}

// ProbeResponse represents the outcome of a single on-demand status probe
type ProbeResponse struct {
	OperationID string `json:"operationId"`
	Done        bool   `json:"done"`
	Status      string `json:"status"`
	Strategy    string `json:"strategy"`
	Candidate   string `json:"candidate,omitempty"`
	VideoURI    string `json:"videoUri,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Outcome constants
const (
	OutcomePending  = "pending"
	OutcomeSuccess  = "success"
	OutcomeFiltered = "filtered"
	OutcomeEmpty    = "empty_result"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"
)
