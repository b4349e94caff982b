package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sndx/internal/audiosink"
	"sndx/internal/browser"
	"sndx/internal/capture"
	"sndx/internal/config"
	"sndx/internal/logging"
	"sndx/internal/notifications"
	"sndx/internal/session"
)

// backends builds the external-facing pieces of an extract run.
type backends struct {
	sinks    func(cfg *config.Config, ids *audiosink.IDGenerator, logger *slog.Logger) (audiosink.Manager, error)
	launcher func(cfg *config.Config, logger *slog.Logger) browser.Launcher
	capturer func(cfg *config.Config, logger *slog.Logger) session.Capturer
	notifier func(cfg *config.Config) notifications.Service
	logger   func(cfg *config.Config) (*slog.Logger, error)
}

func defaultBackends() backends {
	return backends{
		sinks: func(cfg *config.Config, ids *audiosink.IDGenerator, logger *slog.Logger) (audiosink.Manager, error) {
			return audiosink.NewPulseManager(cfg.Audio.PactlBinary,
				audiosink.WithIDGenerator(ids),
				audiosink.WithLogger(logger),
			)
		},
		launcher: func(cfg *config.Config, logger *slog.Logger) browser.Launcher {
			return browser.NewChromeLauncher(
				browser.WithLaunchTimeout(cfg.LaunchTimeout()),
				browser.WithLogger(logger),
			)
		},
		capturer: func(cfg *config.Config, logger *slog.Logger) session.Capturer {
			return capture.NewController(
				capture.WithBinary(cfg.Capture.FFmpegBinary),
				capture.WithBitrate(cfg.Capture.Bitrate),
				capture.WithChannels(cfg.Capture.Channels),
				capture.WithLogger(logger),
			)
		},
		notifier: notifications.NewService,
		logger:   logging.NewFromConfig,
	}
}

type commandContext struct {
	configFlag *string
	backends   backends

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, b backends) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		backends:   b,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = c.backends.logger(cfg)
	})
	return c.logger, c.loggerErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
