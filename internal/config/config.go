package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir      string `toml:"log_dir"`
	MetricsBind string `toml:"metrics_bind"`
}

// Endpoint describes the remote upload endpoint.
type Endpoint struct {
	UploadURL      string `toml:"upload_url"`
	AuthToken      string `toml:"auth_token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Upload contains tuning for the upload task manager.
type Upload struct {
	MaxConcurrent            int   `toml:"max_concurrent"`
	MaxRetries               int   `toml:"max_retries"`
	RetryBaseDelayMs         int   `toml:"retry_base_delay_ms"`
	ChunkSizeBytes           int64 `toml:"chunk_size_bytes"`
	ChunkThresholdMultiplier int   `toml:"chunk_threshold_multiplier"`
	CompletedLingerSeconds   int   `toml:"completed_linger_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	BatchMinItems  int    `toml:"batch_min_items"`
	Errors         bool   `toml:"errors"`
}

// Logging contains log output configuration.
type Logging struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Config is the root configuration for the upload manager and CLI.
type Config struct {
	Paths         `toml:"paths"`
	Endpoint      `toml:"endpoint"`
	Upload        `toml:"upload"`
	Notifications `toml:"notifications"`
	Logging       `toml:"logging"`
}

// DefaultConfigPath returns the canonical location of the config file.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "uploadq", "config.toml"), nil
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. An empty path selects DefaultConfigPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		resolved = defaultPath
	}

	expanded, err := expandPath(resolved)
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", expanded, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply when no config file exists.
	default:
		return nil, fmt.Errorf("read %s: %w", expanded, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnsureDirectories creates directories the runtime expects to exist.
func (c *Config) EnsureDirectories() error {
	if c.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("sample path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Marshal renders the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func (c *Config) normalize() error {
	var err error
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.UploadURL = strings.TrimSpace(c.UploadURL)
	c.NtfyTopic = strings.TrimSpace(c.NtfyTopic)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return trimmed, nil
}
