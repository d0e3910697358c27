// Package logging builds slog loggers with console and JSON output and
// provides the standardized attribute helpers used across the repo.
package logging
