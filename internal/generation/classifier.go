package generation

import (
	"errors"
	"strings"

	"dreamframe/internal/apperrors"
	"dreamframe/internal/veo"
)

// Result is the classified terminal outcome of a generation.
type Result struct {
	Outcome   string
	VideoURI  string
	Strategy  veo.Strategy
	Candidate string
	Response  *veo.PredictResult
	Err       error // nil only when Outcome is success
}

// classify maps a terminal operation payload onto an outcome.
//
// Moderation wins over everything else: a payload with a non-zero
// filtered count is classified filtered even if it also carries a video
// locator. A clean payload without a usable locator is an empty result.
func classify(attempt *veo.PollAttempt) *Result {
	payload := attempt.Payload
	result := &Result{
		Strategy:  attempt.Strategy,
		Candidate: attempt.Candidate,
		Response:  payload.Response,
	}

	switch {
	case payload.Error != nil:
		result.Outcome = OutcomeFailed
		result.Err = apperrors.Internal("generation", errors.New(backendMessage(payload.Error)))
	case payload.Response.Filtered():
		result.Outcome = OutcomeFiltered
		result.Err = apperrors.ContentFiltered(
			payload.Response.RAIMediaFilteredCount,
			strings.Join(payload.Response.RAIMediaFilteredReasons, "; "),
		)
	case !payload.Response.HasMedia():
		result.Outcome = OutcomeEmpty
		result.Err = apperrors.EmptyResult("generation")
	default:
		result.Outcome = OutcomeSuccess
		result.VideoURI = payload.Response.MediaURI()
	}
	return result
}

func backendMessage(opErr *veo.OperationError) string {
	if opErr.Message != "" {
		return "backend reported failure: " + opErr.Message
	}
	return "backend reported failure without a message"
}
