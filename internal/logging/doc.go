// Package logging builds slog loggers for the CLI and library components
// and provides the attr helpers used throughout the repository.
package logging
