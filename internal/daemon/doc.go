// Package daemon coordinates the long-running queuewatch process.
//
// It wires configuration, the record store, the interceptor and
// notifications into a single lifecycle with flock-based locking to prevent
// multiple instances. Three pieces run while the daemon is up: the attach
// listener (a reverse proxy for one upstream whose transport is the
// interceptor), the JSON API consumed by `queuewatch status`, and the watcher
// that turns store updates and countdown ticks into push notifications.
//
// Keep orchestration logic here: detection, storage and display rules live in
// their own packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
