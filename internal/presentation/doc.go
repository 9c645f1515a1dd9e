// Package presentation derives the time-dependent view of a queue record.
//
// DeriveView is a pure function of a record and an instant: callers
// re-evaluate it on every refresh tick because the countdown changes with
// the clock even when no new network data arrives.
package presentation
