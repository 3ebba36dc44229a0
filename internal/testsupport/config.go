package testsupport

import (
	"path/filepath"
	"testing"

	"uploadq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and timings short enough for fast async assertions.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.RetryBaseDelayMs = 5
	cfg.CompletedLingerSeconds = 60

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithMaxConcurrent overrides the concurrency ceiling on the test config.
func WithMaxConcurrent(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.MaxConcurrent = n
	}
}

// WithMaxRetries overrides the retry budget on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.MaxRetries = n
	}
}

// WithChunking overrides the chunk size and threshold multiplier.
func WithChunking(chunkSize int64, multiplier int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ChunkSizeBytes = chunkSize
		cfg.ChunkThresholdMultiplier = multiplier
	}
}

// WithCompletedLinger overrides how long completed tasks stay visible.
func WithCompletedLinger(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.CompletedLingerSeconds = seconds
	}
}
