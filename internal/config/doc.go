// Package config loads, validates, and defaults the TOML configuration for
// the upload manager and CLI.
//
// Configuration lives at ~/.config/uploadq/config.toml by default. Load
// falls back to Default when the file is absent so the CLI works with no
// setup beyond an endpoint URL. Tilde paths are expanded during
// normalization and directories are created lazily via EnsureDirectories.
package config
