// Package logging builds slog loggers with console and JSON output,
// shared field names, and helpers for carrying correlation identifiers
// from context into log records.
package logging
