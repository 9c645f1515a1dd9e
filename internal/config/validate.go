package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAttach(); err != nil {
		return err
	}
	if err := c.validateInterception(); err != nil {
		return err
	}
	if err := c.validateDashboard(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateAttach() error {
	if c.Attach.Upstream != "" {
		parsed, err := url.Parse(c.Attach.Upstream)
		if err != nil {
			return fmt.Errorf("attach.upstream: %w", err)
		}
		if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("attach.upstream must be an absolute http(s) URL, got %q", c.Attach.Upstream)
		}
	}
	if _, _, err := net.SplitHostPort(c.Attach.Listen); err != nil {
		return fmt.Errorf("attach.listen must be host:port: %w", err)
	}
	if c.Attach.Listen == c.Paths.APIBind {
		return errors.New("attach.listen must differ from paths.api_bind")
	}
	return nil
}

func (c *Config) validateInterception() error {
	if c.Interception.MaxBodyBytes <= 0 {
		return errors.New("interception.max_body_bytes must be positive")
	}
	return nil
}

func (c *Config) validateDashboard() error {
	return ensurePositiveMap(map[string]int{
		"dashboard.refresh_interval_ms": c.Dashboard.RefreshIntervalMS,
		"dashboard.name_max_runes":      c.Dashboard.NameMaxRunes,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
