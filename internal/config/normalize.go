package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePortal()
	c.normalizeBrowser()
	c.normalizeTools()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SNDX_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.ProfileRootDir) == "" {
		c.Paths.ProfileRootDir = defaultProfileRootDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		c.Paths.CatalogPath = defaultCatalogPath
	}

	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.ProfileRootDir, err = expandPath(c.Paths.ProfileRootDir); err != nil {
		return fmt.Errorf("paths.profile_root_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CatalogPath, err = expandPath(c.Paths.CatalogPath); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	return nil
}

func (c *Config) normalizePortal() {
	c.Portal.LoginURL = strings.TrimSpace(c.Portal.LoginURL)
	if c.Portal.LoginURL == "" {
		c.Portal.LoginURL = defaultLoginURL
	}
}

func (c *Config) normalizeBrowser() {
	// CHROMIUM_PATH wins over the file so wrapper scripts can pin a binary.
	if value, ok := os.LookupEnv("CHROMIUM_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Browser.Executable = value
	}
	c.Browser.Executable = strings.TrimSpace(c.Browser.Executable)
}

func (c *Config) normalizeTools() {
	c.Audio.PactlBinary = strings.TrimSpace(c.Audio.PactlBinary)
	if c.Audio.PactlBinary == "" {
		c.Audio.PactlBinary = defaultPactlBinary
	}
	c.Capture.FFmpegBinary = strings.TrimSpace(c.Capture.FFmpegBinary)
	if c.Capture.FFmpegBinary == "" {
		c.Capture.FFmpegBinary = defaultFFmpegBinary
	}
	c.Capture.Bitrate = strings.ToLower(strings.TrimSpace(c.Capture.Bitrate))
	if c.Capture.Bitrate == "" {
		c.Capture.Bitrate = defaultBitrate
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
