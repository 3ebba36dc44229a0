package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEndpoint(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEndpoint() error {
	if c.UploadURL == "" {
		// The CLI may supply the endpoint per invocation.
		return nil
	}
	parsed, err := url.Parse(c.UploadURL)
	if err != nil {
		return fmt.Errorf("endpoint.upload_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("endpoint.upload_url must be http or https, got %q", c.UploadURL)
	}
	if c.Endpoint.RequestTimeout < 0 {
		return errors.New("endpoint.request_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.MaxConcurrent < 1 {
		return errors.New("upload.max_concurrent must be at least 1")
	}
	if c.MaxRetries < 0 {
		return errors.New("upload.max_retries must not be negative")
	}
	if c.RetryBaseDelayMs < 1 {
		return errors.New("upload.retry_base_delay_ms must be at least 1")
	}
	if c.ChunkSizeBytes < 1 {
		return errors.New("upload.chunk_size_bytes must be at least 1")
	}
	if c.ChunkThresholdMultiplier < 1 {
		return errors.New("upload.chunk_threshold_multiplier must be at least 1")
	}
	if c.CompletedLingerSeconds < 0 {
		return errors.New("upload.completed_linger_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}
