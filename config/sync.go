package config

import (
	"time"

	"github.com/jcooky/go-din"
)

type SyncConfig struct {
	// AssistantModel is the model every tenant assistant is created with.
	// Default: "gpt-4o"
	AssistantModel string `env:"ASSISTANT_MODEL" json:"assistantModel,omitempty"`

	// AssistantNamePrefix is prepended to the tenant id to form the canonical
	// assistant name. Discovery also keys off this prefix when reconciling
	// assistants created by older code paths.
	// Default: "prodpulse-assistant"
	AssistantNamePrefix string `env:"ASSISTANT_NAME_PREFIX" json:"assistantNamePrefix,omitempty"`

	// StaleAfterMinutes is the freshness window for a cached sync timestamp.
	// A resolution that finds a record older than this triggers a background
	// resync; the caller is still served the cached handle.
	// Default: 30
	StaleAfterMinutes int `env:"SYNC_STALE_AFTER_MINUTES" json:"staleAfterMinutes,omitempty"`

	// PollIntervalMs is the fixed delay between provider-side processing
	// status polls after attaching a file to a vector store.
	// Default: 1000
	PollIntervalMs int `env:"SYNC_POLL_INTERVAL_MS" json:"pollIntervalMs,omitempty"`

	// MaxPollAttempts bounds the polling loop. Exhausting the budget fails
	// the sync before anything is persisted.
	// Default: 30
	MaxPollAttempts int `env:"SYNC_MAX_POLL_ATTEMPTS" json:"maxPollAttempts,omitempty"`
}

// NewSyncConfig creates a SyncConfig with sensible defaults. These can be
// overridden by environment variables.
func NewSyncConfig() *SyncConfig {
	return &SyncConfig{
		AssistantModel:      "gpt-4o",
		AssistantNamePrefix: "prodpulse-assistant",
		StaleAfterMinutes:   30,
		PollIntervalMs:      1000,
		MaxPollAttempts:     30,
	}
}

func (c *SyncConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterMinutes) * time.Minute
}

func (c *SyncConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func init() {
	din.RegisterT(func(c *din.Container) (*SyncConfig, error) {
		conf := NewSyncConfig()
		return conf, resolveConfig(conf, c.Env == din.EnvTest)
	})
}
