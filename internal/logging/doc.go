// Package logging assembles structured slog loggers and formatting helpers used
// across queuewatch.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so interception code can tag
// every line about one HTTP exchange with the same correlation ID. A bounded
// StreamHub keeps recent events in memory for the daemon's log endpoint. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
