package generation

import (
	"time"

	"dreamframe/internal/config"
)

// Config holds polling and callback settings for the generation service.
type Config struct {
	PollInterval time.Duration // gap between status probes (default: 30s)
	PollDeadline time.Duration // overall per-operation budget (default: 4h)
	EventSource  string        // source attribute on callback events
}

// LoadConfigFromEnv loads generation configuration from environment variables.
func LoadConfigFromEnv() Config {
	cfg := Config{
		PollInterval: config.GetDurationEnv("GENERATION_POLL_INTERVAL", 30*time.Second),
		PollDeadline: config.GetDurationEnv("GENERATION_POLL_DEADLINE", 4*time.Hour),
		EventSource:  config.GetEnv("GENERATION_EVENT_SOURCE", "dreamframe/video-service"),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero values with defaults.
func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.PollDeadline <= 0 {
		c.PollDeadline = 4 * time.Hour
	}
	if c.EventSource == "" {
		c.EventSource = "dreamframe/video-service"
	}
	return c
}
