package config

import (
	"fmt"
	"os"
	"strings"

	"queuewatch/internal/shape"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAttach()
	c.normalizeInterception()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("QUEUEWATCH_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeAttach() {
	c.Attach.Upstream = strings.TrimSpace(c.Attach.Upstream)
	if c.Attach.Upstream == "" {
		if value, ok := os.LookupEnv("QUEUEWATCH_UPSTREAM"); ok {
			c.Attach.Upstream = strings.TrimSpace(value)
		}
	}
	c.Attach.Upstream = strings.TrimRight(c.Attach.Upstream, "/")
	c.Attach.Listen = strings.TrimSpace(c.Attach.Listen)
	if c.Attach.Listen == "" {
		c.Attach.Listen = defaultAttachListen
	}
}

func (c *Config) normalizeInterception() {
	fragments := make([]string, 0, len(c.Interception.URLFragments))
	seen := make(map[string]struct{}, len(c.Interception.URLFragments))
	for _, fragment := range c.Interception.URLFragments {
		trimmed := strings.TrimSpace(fragment)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		fragments = append(fragments, trimmed)
	}
	if len(fragments) == 0 {
		fragments = append(fragments, shape.DefaultURLFragments...)
	}
	c.Interception.URLFragments = fragments
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("QUEUEWATCH_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
