// Package notifications pushes queue milestones to a phone via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Three events are
// covered: a ticket first seen, admission becoming likely, and the turn being
// reached. Repeats of the same event for the same item are suppressed inside
// notifications.dedup_window_seconds so polling traffic does not spam the
// topic. Nothing is ever sent to the system that issued the ticket.
package notifications
