// Package queue holds the canonical queue-ticket record and the in-memory
// store that tracks the most recent observation per identity.
//
// Records are only built from shape.Candidate values, so everything in the
// store has already passed the full-record predicate. Ingest replaces whole
// records keyed by ItemID (last write wins, no field merge) and notifies
// subscribers with a freshly sorted snapshot whenever at least one candidate
// was accepted. Nothing is persisted; the store lives as long as the process.
//
// Snapshot ordering is part of the contract: admission-likely records come
// first, then ascending expected turn time with unknown ETAs last.
package queue
