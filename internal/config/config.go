package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir      string `toml:"output_dir"`
	ProfileRootDir string `toml:"profile_root_dir"`
	LogDir         string `toml:"log_dir"`
	CatalogPath    string `toml:"catalog_path"`
}

// Portal describes the VOD portal endpoints.
type Portal struct {
	LoginURL string `toml:"login_url"`
}

// Browser contains browser launch settings.
type Browser struct {
	// Executable selects the browser binary. Empty means chromedp discovery.
	Executable           string `toml:"executable"`
	Headless             bool   `toml:"headless"`
	SettleWaitMillis     int    `toml:"settle_wait_ms"`
	LaunchTimeoutSeconds int    `toml:"launch_timeout_seconds"`
}

// Audio contains virtual sink settings.
type Audio struct {
	PactlBinary string `toml:"pactl_binary"`
}

// Capture contains encoder settings.
type Capture struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	Bitrate      string `toml:"bitrate"`
	Channels     int    `toml:"channels"`
}

// Pool contains session pool settings.
type Pool struct {
	// IdleWaitSeconds is how long sessions stay up when a run has no URLs.
	IdleWaitSeconds int `toml:"idle_wait_seconds"`
}

// Catalog contains settings for the ledger of completed recordings.
type Catalog struct {
	Enabled      bool `toml:"enabled"`
	SkipRecorded bool `toml:"skip_recorded"`
}

// Notifications contains ntfy settings for run summaries.
type Notifications struct {
	// NtfyTopic is the full ntfy topic URL. Empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for sndx.
//
// Configuration sections by subsystem:
//   - Paths: output, browser profile, log directories and catalog database
//   - Portal: login endpoint
//   - Browser: executable, headless mode, settle wait, launch timeout
//   - Audio: pactl binary used to manage null sinks
//   - Capture: ffmpeg binary, bitrate, channel count
//   - Pool: idle wait used when a run has no URLs
//   - Catalog: recording ledger toggles
//   - Notifications: ntfy topic for run summaries
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Portal        Portal        `toml:"portal"`
	Browser       Browser       `toml:"browser"`
	Audio         Audio         `toml:"audio"`
	Capture       Capture       `toml:"capture"`
	Pool          Pool          `toml:"pool"`
	Catalog       Catalog       `toml:"catalog"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sndx/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sndx.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories an extract run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.ProfileRootDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.CatalogPath); c.Catalog.Enabled && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog directory %q: %w", dir, err)
		}
	}
	return nil
}

// SettleWait returns the fixed pause applied after navigations.
func (c *Config) SettleWait() time.Duration {
	return time.Duration(c.Browser.SettleWaitMillis) * time.Millisecond
}

// LaunchTimeout bounds how long a browser may take to start.
func (c *Config) LaunchTimeout() time.Duration {
	return time.Duration(c.Browser.LaunchTimeoutSeconds) * time.Second
}

// IdleWait returns how long sessions stay up when a run has no URLs.
func (c *Config) IdleWait() time.Duration {
	return time.Duration(c.Pool.IdleWaitSeconds) * time.Second
}

// ProfileDir returns the browser user-data directory for a profile identifier.
func (c *Config) ProfileDir(profileID string) string {
	return filepath.Join(c.Paths.ProfileRootDir, profileID)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
