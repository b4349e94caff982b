package config

const (
	defaultOutputDir            = "~/sndx/recordings"
	defaultProfileRootDir       = "~/.local/share/sndx/profiles"
	defaultLogDir               = "~/.local/share/sndx/logs"
	defaultCatalogPath          = "~/.local/share/sndx/catalog.db"
	defaultLoginURL             = "https://vod.catalogue-crc.org/connexion.html"
	defaultSettleWaitMillis     = 2000
	defaultLaunchTimeoutSeconds = 60
	defaultPactlBinary          = "pactl"
	defaultFFmpegBinary         = "ffmpeg"
	defaultBitrate              = "192k"
	defaultChannels             = 2
	defaultIdleWaitSeconds      = 10
	defaultNtfyTimeoutSeconds   = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:      defaultOutputDir,
			ProfileRootDir: defaultProfileRootDir,
			LogDir:         defaultLogDir,
			CatalogPath:    defaultCatalogPath,
		},
		Portal: Portal{
			LoginURL: defaultLoginURL,
		},
		Browser: Browser{
			Headless:             true,
			SettleWaitMillis:     defaultSettleWaitMillis,
			LaunchTimeoutSeconds: defaultLaunchTimeoutSeconds,
		},
		Audio: Audio{
			PactlBinary: defaultPactlBinary,
		},
		Capture: Capture{
			FFmpegBinary: defaultFFmpegBinary,
			Bitrate:      defaultBitrate,
			Channels:     defaultChannels,
		},
		Pool: Pool{
			IdleWaitSeconds: defaultIdleWaitSeconds,
		},
		Catalog: Catalog{
			Enabled:      true,
			SkipRecorded: true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
