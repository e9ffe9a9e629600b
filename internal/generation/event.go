package generation

import (
	"slices"

	"dreamframe/internal/veo"
	"dreamframe/pkg/webhook"
)

// eventAllowed reports whether the event type passes the callback's
// event filter. An empty filter allows everything.
func eventAllowed(eventType string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	return slices.Contains(filter, eventType)
}

// buildEvent maps a terminal result onto a callback event.
func buildEvent(source string, op *veo.Operation, result *Result) *webhook.Event {
	data := map[string]any{
		"endpoint": op.SubmittedVia,
	}

	var eventType string
	switch result.Outcome {
	case OutcomeSuccess:
		eventType = webhook.EventTypeSucceeded
		data["videoUri"] = result.VideoURI
	case OutcomeFiltered:
		eventType = webhook.EventTypeFiltered
		data["error"] = result.Err.Error()
	case OutcomeTimeout:
		eventType = webhook.EventTypeTimeout
		data["error"] = result.Err.Error()
	default:
		eventType = webhook.EventTypeFailed
		if result.Err != nil {
			data["error"] = result.Err.Error()
		}
	}

	return webhook.New(eventType, source, op.Handle, data)
}
