package media

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"dreamframe/internal/credentials"
	"dreamframe/internal/veo"
)

func TestRetrieve_Inline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := NewRetriever(Config{Dir: dir}, credentials.Static("tok"))

	payload := []byte("fake video bytes")
	result := &veo.PredictResult{
		Videos: []veo.Video{{BytesBase64Encoded: base64.StdEncoding.EncodeToString(payload)}},
	}

	path, err := r.Retrieve(context.Background(), "op-1", result)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("path %q not under media dir %q", path, dir)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("stored bytes = %q, want %q", got, payload)
	}
}

func TestRetrieve_Download(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bucket/videos/op-2.mp4" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte("downloaded bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	r := NewRetriever(Config{Dir: dir, StorageBaseURL: srv.URL}, credentials.Static("tok"))

	result := &veo.PredictResult{
		Videos: []veo.Video{{GCSURI: "gs://bucket/videos/op-2.mp4"}},
	}

	path, err := r.Retrieve(context.Background(), "op-2", result)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(got) != "downloaded bytes" {
		t.Errorf("stored bytes = %q", got)
	}
}

func TestRetrieve_DownloadError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	r := NewRetriever(Config{Dir: t.TempDir(), StorageBaseURL: srv.URL}, credentials.Static("tok"))

	result := &veo.PredictResult{Videos: []veo.Video{{GCSURI: "gs://bucket/clip.mp4"}}}
	if _, err := r.Retrieve(context.Background(), "op-3", result); err == nil {
		t.Fatal("expected error for HTTP 403 download")
	}
}

func TestRetrieve_NoLocator(t *testing.T) {
	t.Parallel()

	r := NewRetriever(Config{Dir: t.TempDir()}, credentials.Static("tok"))
	if _, err := r.Retrieve(context.Background(), "op-4", &veo.PredictResult{}); err == nil {
		t.Fatal("expected error for result without locator")
	}
	if _, err := r.Retrieve(context.Background(), "op-4", nil); err == nil {
		t.Fatal("expected error for nil result")
	}
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	r := NewRetriever(Config{Dir: "unused"}, credentials.Static("tok"))

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"storage uri", "gs://bucket/a/b.mp4", "https://storage.googleapis.com/bucket/a/b.mp4", false},
		{"https passthrough", "https://example.com/clip.mp4", "https://example.com/clip.mp4", false},
		{"missing object", "gs://bucket", "", true},
		{"unsupported scheme", "ftp://example.com/clip.mp4", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.resolveURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("resolveURL(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveURL(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("resolveURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"op-123", "op-123"},
		{"../../etc/passwd", "etcpasswd"},
		{"", "media"},
		{"...", "media"},
		{"a b/c", "abc"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
