package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
)

var bitratePattern = regexp.MustCompile(`^[0-9]+k?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePortal(); err != nil {
		return err
	}
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePortal() error {
	parsed, err := url.Parse(c.Portal.LoginURL)
	if err != nil {
		return fmt.Errorf("portal.login_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("portal.login_url must be an http(s) URL, got %q", c.Portal.LoginURL)
	}
	return nil
}

func (c *Config) validateBrowser() error {
	if c.Browser.SettleWaitMillis < 0 {
		return errors.New("browser.settle_wait_ms must be zero or positive")
	}
	return ensurePositiveMap(map[string]int{
		"browser.launch_timeout_seconds": c.Browser.LaunchTimeoutSeconds,
	})
}

func (c *Config) validateCapture() error {
	if !bitratePattern.MatchString(c.Capture.Bitrate) {
		return fmt.Errorf("capture.bitrate must look like 192k, got %q", c.Capture.Bitrate)
	}
	if c.Capture.Channels < 1 || c.Capture.Channels > 8 {
		return fmt.Errorf("capture.channels must be between 1 and 8, got %d", c.Capture.Channels)
	}
	if c.Pool.IdleWaitSeconds < 0 {
		return errors.New("pool.idle_wait_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
