// Package logs reads daemon logs for the CLI.
//
// StreamClient pages through the daemon's in-memory log stream over the JSON
// API, with optional long-poll follow. When the daemon is not reachable the
// CLI falls back to Tail, which reads the JSON lines file the daemon appends
// to in the log directory.
package logs
