// Package logging assembles structured slog loggers and formatting helpers used
// across slidescribe commands.
//
// It owns the configurable console/JSON handlers, mirrors every record into a
// JSON log file when a log directory is configured, and exposes context-aware
// helpers so workflow code can tag log lines with run identifiers and stage
// names. The package also provides a no-op logger for tests and library code
// that must stay silent.
package logging
