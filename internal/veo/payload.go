package veo

// predictRequest is the submission body for :predictLongRunning.
type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount     int    `json:"sampleCount"`
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
}

// predictResponse is the immediate response to a submission. Name is
// the server-assigned long-running operation resource path.
type predictResponse struct {
	Name string `json:"name"`
}

// OperationPayload is the backend's long-running operation document as
// returned by status lookups.
type OperationPayload struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *OperationError `json:"error,omitempty"`
	Response *PredictResult  `json:"response,omitempty"`
}

// OperationError is the backend's terminal failure record.
type OperationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// PredictResult is the response body of a completed operation.
type PredictResult struct {
	RAIMediaFilteredCount   int      `json:"raiMediaFilteredCount,omitempty"`
	RAIMediaFilteredReasons []string `json:"raiMediaFilteredReasons,omitempty"`
	Videos                  []Video  `json:"videos,omitempty"`
}

// Video is a single generated sample.
type Video struct {
	GCSURI             string `json:"gcsUri,omitempty"`
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

// Filtered reports whether the moderation layer withheld any samples.
func (r *PredictResult) Filtered() bool {
	return r != nil && r.RAIMediaFilteredCount > 0
}

// MediaURI returns the storage URI of the first sample, or "" when no
// sample carries one.
func (r *PredictResult) MediaURI() string {
	if r == nil {
		return ""
	}
	for _, v := range r.Videos {
		if v.GCSURI != "" {
			return v.GCSURI
		}
	}
	return ""
}

// InlineMedia returns the base64-encoded bytes of the first sample that
// was returned inline, or "" when none was.
func (r *PredictResult) InlineMedia() string {
	if r == nil {
		return ""
	}
	for _, v := range r.Videos {
		if v.BytesBase64Encoded != "" {
			return v.BytesBase64Encoded
		}
	}
	return ""
}

// HasMedia reports whether any sample carries a usable locator, either
// a storage URI or inline bytes.
func (r *PredictResult) HasMedia() bool {
	return r.MediaURI() != "" || r.InlineMedia() != ""
}
