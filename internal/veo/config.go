package veo

import (
	"fmt"
	"time"

	"dreamframe/internal/config"
)

// Default model-endpoint candidates, most-likely-correct first. The
// backend's accepted identifier drifts between documentation and live
// behavior, so several plausible names are tried in order.
var defaultCandidates = []string{
	"veo-3.0-generate-001",
	"veo-3.0-generate-preview",
	"veo-3",
}

// Config holds connection settings for the remote generation backend.
type Config struct {
	ProjectID     string
	Location      string
	BaseURL       string // override for tests; default derived from Location
	Candidates    []string
	SubmitTimeout time.Duration // per submission attempt (default: 60s)
	ProbeTimeout  time.Duration // per status lookup call (default: 10s)
}

// LoadConfigFromEnv loads backend configuration from environment variables.
func LoadConfigFromEnv() Config {
	cfg := Config{
		ProjectID:     config.GetEnv("VEO_PROJECT_ID", ""),
		Location:      config.GetEnv("VEO_LOCATION", "us-central1"),
		BaseURL:       config.GetEnv("VEO_BASE_URL", ""),
		Candidates:    config.GetListEnv("VEO_MODEL_CANDIDATES", defaultCandidates),
		SubmitTimeout: config.GetDurationEnv("VEO_SUBMIT_TIMEOUT", 60*time.Second),
		ProbeTimeout:  config.GetDurationEnv("VEO_PROBE_TIMEOUT", 10*time.Second),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero values with defaults.
func (c Config) withDefaults() Config {
	if c.Location == "" {
		c.Location = "us-central1"
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", c.Location)
	}
	if len(c.Candidates) == 0 {
		c.Candidates = defaultCandidates
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 60 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 10 * time.Second
	}
	return c
}
