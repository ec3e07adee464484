package config

const (
	defaultStagingDir      = "~/.local/share/reelpost/staging"
	defaultLogDir          = "~/.local/share/reelpost/logs"
	defaultGraphAPIVersion = "v18.0"
	defaultCookiesPath     = "cookie-insta.json"
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultCredentialsPath = "credentials.json"
	defaultUploadEndpoint  = "https://tmpfiles.org/api/v1/upload"
	defaultMaxUploadMiB    = 100
	defaultPostInterval    = 1
	defaultMaxRetries      = 3
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Instagram: Instagram{
			GraphAPIVersion: defaultGraphAPIVersion,
			CookiesPath:     defaultCookiesPath,
		},
		Gemini: Gemini{
			Model: defaultGeminiModel,
		},
		Sheets: Sheets{
			Enabled:         true,
			CredentialsPath: defaultCredentialsPath,
		},
		Uploader: Uploader{
			Endpoint:     defaultUploadEndpoint,
			MaxUploadMiB: defaultMaxUploadMiB,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Published:      true,
			Queue:          true,
			Errors:         true,
		},
		Workflow: Workflow{
			PostIntervalMinutes: defaultPostInterval,
			QueuePollInterval:   5,
			ErrorRetryInterval:  10,
			// Zero means "derive from post interval" (5x, matching the
			// idle rescan the bot has always used).
			SheetPollInterval: 0,
			MaxRetries:        defaultMaxRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
