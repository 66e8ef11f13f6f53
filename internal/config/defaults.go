package config

// Store backend identifiers.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

const (
	defaultDataDir        = "~/.local/share/reelsmith"
	defaultLogDir         = "~/.local/share/reelsmith/logs"
	defaultAPIBind        = "127.0.0.1:7319"
	defaultStoreBackend   = BackendFS
	defaultPublishExpiry  = 24
	defaultLocalServePath = "~/.local/share/reelsmith/artifacts"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultNtfyTimeout    = 10

	// Ducking defaults: narration bed at ~-10 dB, gaps at ~-3 dB.
	defaultNarrationVolume = 0.316
	defaultGapVolume       = 0.708
	defaultAttackMs        = 200
	defaultReleaseMs       = 400
	defaultMinGapDuration  = 0.5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Store: Store{
			Backend: defaultStoreBackend,
		},
		Publish: Publish{
			ExpiryHours: defaultPublishExpiry,
			LocalDir:    defaultLocalServePath,
		},
		Ducking: Ducking{
			NarrationVolume: defaultNarrationVolume,
			GapVolume:       defaultGapVolume,
			AttackMs:        defaultAttackMs,
			ReleaseMs:       defaultReleaseMs,
			MinGapDuration:  defaultMinGapDuration,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			RunStarted:     true,
			RunCompleted:   true,
			RunFailed:      true,
			LedgerAlerts:   true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
