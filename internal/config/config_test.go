package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.MaxConcurrent != 3 {
		t.Errorf("default max_concurrent = %d, want 3", cfg.MaxConcurrent)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("default max_retries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryBaseDelayMs != 1000 {
		t.Errorf("default retry_base_delay_ms = %d, want 1000", cfg.RetryBaseDelayMs)
	}
	if cfg.ChunkSizeBytes != 1<<20 {
		t.Errorf("default chunk_size_bytes = %d, want %d", cfg.ChunkSizeBytes, 1<<20)
	}
	if cfg.ChunkThresholdMultiplier != 5 {
		t.Errorf("default chunk_threshold_multiplier = %d, want 5", cfg.ChunkThresholdMultiplier)
	}
	if cfg.LogFormat != "console" || cfg.LogLevel != "info" {
		t.Errorf("unexpected logging defaults: %q/%q", cfg.LogFormat, cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxConcurrent != 3 {
		t.Fatalf("expected default concurrency, got %d", cfg.MaxConcurrent)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[endpoint]
upload_url = "https://uploads.example.com/ingest"
auth_token = "tok"

[upload]
max_concurrent = 8
retry_base_delay_ms = 250

[logging]
log_format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UploadURL != "https://uploads.example.com/ingest" {
		t.Errorf("upload_url not applied: %q", cfg.UploadURL)
	}
	if cfg.MaxConcurrent != 8 {
		t.Errorf("max_concurrent not applied: %d", cfg.MaxConcurrent)
	}
	if cfg.RetryBaseDelayMs != 250 {
		t.Errorf("retry_base_delay_ms not applied: %d", cfg.RetryBaseDelayMs)
	}
	// Normalization lowercases the format.
	if cfg.LogFormat != "json" {
		t.Errorf("log_format not normalized: %q", cfg.LogFormat)
	}
	// Untouched sections keep their defaults.
	if cfg.MaxRetries != 3 {
		t.Errorf("max_retries should keep default, got %d", cfg.MaxRetries)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad scheme",
			content: "[endpoint]\nupload_url = \"ftp://example.com\"\n",
			wantErr: "upload_url",
		},
		{
			name:    "zero concurrency",
			content: "[upload]\nmax_concurrent = 0\n",
			wantErr: "max_concurrent",
		},
		{
			name:    "negative retries",
			content: "[upload]\nmax_retries = -1\n",
			wantErr: "max_retries",
		},
		{
			name:    "zero chunk size",
			content: "[upload]\nchunk_size_bytes = 0\n",
			wantErr: "chunk_size_bytes",
		},
		{
			name:    "bad log format",
			content: "[logging]\nlog_format = \"xml\"\n",
			wantErr: "log_format",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error writing over existing config")
	}

	// The sample must itself be loadable.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("sample config did not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

func TestMarshalRoundTrips(t *testing.T) {
	cfg := Default()
	cfg.UploadURL = "https://example.com/up"

	rendered, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(rendered), "https://example.com/up") {
		t.Fatalf("rendered config missing endpoint: %s", rendered)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	got, err := expandPath("~/logs")
	if err != nil {
		t.Fatalf("expandPath failed: %v", err)
	}
	if got != filepath.Join(home, "logs") {
		t.Fatalf("expandPath(~/logs) = %q", got)
	}

	got, err = expandPath("/var/log/uploadq")
	if err != nil {
		t.Fatalf("expandPath failed: %v", err)
	}
	if got != "/var/log/uploadq" {
		t.Fatalf("absolute path should pass through, got %q", got)
	}
}
