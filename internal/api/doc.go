// Package api defines wire-format types and converters for the daemon's HTTP
// API. It translates queue records and their derived views into
// transport-friendly DTOs that the CLI and other consumers can render without
// coupling to internal types.
//
// # Key Types
//
// RecordItem: transport representation of a queue ticket, carrying the raw
// fields needed to rebuild a record plus the view derived at response time.
//
// RecordsResponse: the ordered snapshot with its item-count badge.
//
// StatusResponse: daemon running state, listener addresses, record count and
// interception counters.
//
// LogStreamResponse: buffered log events for tailing.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// The original ticket object is passed through as json.RawMessage to avoid
// double-encoding. ToRecord lets clients recompute countdowns locally between
// fetches with presentation.DeriveView.
package api
