package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_PopulatesEvent(t *testing.T) {
	t.Parallel()

	event := New(EventTypeSucceeded, "video-service", "op-42", map[string]any{"videoUri": "gs://bucket/v.mp4"})

	if event.ID == "" {
		t.Error("Expected generated event ID")
	}
	if event.Type != EventTypeSucceeded {
		t.Errorf("Expected type %q, got %q", EventTypeSucceeded, event.Type)
	}
	if event.OperationID != "op-42" {
		t.Errorf("Expected operation ID op-42, got %q", event.OperationID)
	}
	if event.Time.IsZero() {
		t.Error("Expected event time to be set")
	}
}

func TestSend_DeliversEvent(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	event := New(EventTypeFailed, "video-service", "op-1", map[string]any{"reason": "empty result"})
	sender := NewSender(5 * time.Second)

	if err := sender.Send(context.Background(), server.URL, event, SendOptions{}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("Delivered body is not valid JSON: %v", err)
	}
	if decoded.OperationID != "op-1" {
		t.Errorf("Expected operation ID op-1, got %q", decoded.OperationID)
	}
	if gotHeaders.Get("X-Event-Type") != EventTypeFailed {
		t.Errorf("Expected X-Event-Type header %q, got %q", EventTypeFailed, gotHeaders.Get("X-Event-Type"))
	}
	if gotHeaders.Get("X-Signature-256") != "" {
		t.Error("Expected no signature without a signing key")
	}
}

func TestSend_SignsPayload(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Signature-256")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	event := New(EventTypeSucceeded, "video-service", "op-2", nil)
	sender := NewSender(5 * time.Second)

	if err := sender.Send(context.Background(), server.URL, event, SendOptions{SigningKey: "secret"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSignature != want {
		t.Errorf("Signature mismatch: got %q, want %q", gotSignature, want)
	}
}

func TestSend_Non2xxIsHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewSender(5 * time.Second)
	err := sender.Send(context.Background(), server.URL, New(EventTypeTimeout, "src", "op", nil), SendOptions{})

	he, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("Expected *HTTPError, got %T: %v", err, err)
	}
	if he.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", he.StatusCode)
	}
}

func TestIsClientError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"400", &HTTPError{StatusCode: 400}, true},
		{"404", &HTTPError{StatusCode: 404}, true},
		{"499 boundary", &HTTPError{StatusCode: 499}, true},
		{"500", &HTTPError{StatusCode: 500}, false},
		{"399", &HTTPError{StatusCode: 399}, false},
		{"non-HTTP error", context.DeadlineExceeded, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsClientError(tt.err); got != tt.want {
				t.Errorf("IsClientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
