// Package media stores generated videos on local disk, either by
// downloading from object storage or decoding inline payloads.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dreamframe/internal/config"
	"dreamframe/internal/credentials"
	"dreamframe/internal/veo"
)

// Config holds media retrieval settings. An empty Dir disables retrieval.
type Config struct {
	Dir            string
	StorageBaseURL string        // override for tests; default Google Cloud Storage
	Timeout        time.Duration // per-download timeout (default: 2m)
}

// LoadConfigFromEnv loads media configuration from environment variables.
func LoadConfigFromEnv() Config {
	cfg := Config{
		Dir:     config.GetEnv("MEDIA_DIR", ""),
		Timeout: config.GetDurationEnv("MEDIA_DOWNLOAD_TIMEOUT", 2*time.Minute),
	}
	return cfg.withDefaults()
}

// Enabled reports whether retrieval is configured.
func (c Config) Enabled() bool {
	return c.Dir != ""
}

func (c Config) withDefaults() Config {
	if c.StorageBaseURL == "" {
		c.StorageBaseURL = "https://storage.googleapis.com"
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	return c
}

// Retriever persists generated media under a local directory.
type Retriever struct {
	cfg    Config
	creds  credentials.Provider
	client *http.Client
	logger *slog.Logger
}

// NewRetriever creates a retriever writing into cfg.Dir.
func NewRetriever(cfg Config, creds credentials.Provider) *Retriever {
	return &Retriever{
		cfg:    cfg.withDefaults(),
		creds:  creds,
		client: &http.Client{},
		logger: slog.With("component", "media"),
	}
}

// Retrieve writes the first usable sample to disk and returns its path.
// Inline payloads win over storage URIs since they need no further
// round trip.
func (r *Retriever) Retrieve(ctx context.Context, handle string, result *veo.PredictResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no result payload to retrieve")
	}

	if inline := result.InlineMedia(); inline != "" {
		return r.storeInline(handle, inline)
	}
	if uri := result.MediaURI(); uri != "" {
		return r.download(ctx, handle, uri)
	}
	return "", fmt.Errorf("result carries no media locator")
}

func (r *Retriever) storeInline(handle, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode inline media: %w", err)
	}

	f, err := r.createFile(handle)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	r.logger.Info("Media stored", "handle", handle, "path", f.Name(), "bytes", len(data))
	return f.Name(), nil
}

func (r *Retriever) download(ctx context.Context, handle, uri string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	url, err := r.resolveURL(uri)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	token, err := r.creds.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media download returned HTTP %d", resp.StatusCode)
	}

	f, err := r.createFile(handle)
	if err != nil {
		return "", err
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	r.logger.Info("Media stored", "handle", handle, "path", f.Name(), "bytes", n)
	return f.Name(), nil
}

// resolveURL maps a gs:// locator onto its HTTP download URL. Plain
// http(s) locators pass through untouched.
func (r *Retriever) resolveURL(uri string) (string, error) {
	if rest, ok := strings.CutPrefix(uri, "gs://"); ok {
		bucket, object, found := strings.Cut(rest, "/")
		if !found || bucket == "" || object == "" {
			return "", fmt.Errorf("malformed storage URI %q", uri)
		}
		return fmt.Sprintf("%s/%s/%s", r.cfg.StorageBaseURL, bucket, object), nil
	}
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri, nil
	}
	return "", fmt.Errorf("unsupported media locator %q", uri)
}

// createFile creates a uniquely named file for the handle inside the
// configured directory. The handle is sanitized so a hostile value can
// never escape the directory.
func (r *Retriever) createFile(handle string) (*os.File, error) {
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	f, err := os.CreateTemp(r.cfg.Dir, sanitize(handle)+"-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	return f, nil
}

// sanitize strips everything but safe filename characters.
func sanitize(handle string) string {
	var b strings.Builder
	for _, c := range handle {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			b.WriteRune(c)
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		s = "media"
	}
	return filepath.Base(s)
}
