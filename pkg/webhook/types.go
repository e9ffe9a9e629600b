// Package webhook provides signed callback-event delivery over HTTP.
package webhook

import (
	"time"

	"github.com/google/uuid"
)

// Event types for generation lifecycle callbacks
const (
	EventTypeSucceeded = "dreamframe.video.succeeded"
	EventTypeFiltered  = "dreamframe.video.filtered"
	EventTypeFailed    = "dreamframe.video.failed"
	EventTypeTimeout   = "dreamframe.video.timeout"
)

// Event is delivered to a callback URL when a generation reaches a
// terminal state.
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Source      string         `json:"source"`
	OperationID string         `json:"operationId"`
	Time        time.Time      `json:"time"`
	Data        map[string]any `json:"data"`
}

// New creates a new Event with a generated ID.
func New(eventType, source, operationID string, data map[string]any) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		Source:      source,
		OperationID: operationID,
		Time:        time.Now().UTC(),
		Data:        data,
	}
}
