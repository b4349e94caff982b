// Package logging assembles structured slog loggers and formatting helpers used
// across sndx.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with run IDs, session IDs, stages, and recording URLs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
