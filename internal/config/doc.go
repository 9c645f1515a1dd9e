// Package config loads, normalizes, and validates queuewatch configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as QUEUEWATCH_UPSTREAM
// and QUEUEWATCH_NTFY_TOPIC. The Config type centralizes every knob the
// daemon and CLI need so interception limits, listener addresses and
// notification settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
