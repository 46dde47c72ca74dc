// Package logging assembles structured slog loggers and formatting helpers used
// across the primary, its workers, and the CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so dispatch and HTTP code can
// tag log lines with video IDs and correlation IDs. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every process
// emits records with the same shape.
package logging
