// Command queuewatch runs the queue ticket monitor and inspects it.
//
// `queuewatch run` starts the daemon: the attach reverse proxy whose traffic
// is inspected for queue tickets, the JSON API, and push notifications.
// `queuewatch status` renders the dashboard from the API, `queuewatch replay`
// runs a recorded HAR capture through the same detection path offline, and
// `queuewatch config` creates or validates the TOML configuration.
package main
