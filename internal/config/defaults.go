package config

const (
	defaultConfigPath      = "~/.config/cargotag/config.toml"
	defaultOutputDir       = "~/cargo"
	defaultStateDir        = "~/.local/share/cargotag"
	defaultCodeSize        = 200
	defaultErrorCorrection = "medium"
	defaultRecompute       = RecomputeOnChange
	defaultDebounceMS      = 250
	defaultLocationSource  = LocationNone
	defaultGPSDAddress     = "127.0.0.1:2947"
	defaultLocationTimeout = 10
	defaultServerBind      = "127.0.0.1:7490"
	defaultMaxUploadMB     = 25
	defaultNtfyTimeout     = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"

	outputDirEnv = "CARGOTAG_OUTPUT_DIR"
)

// Recompute policies.
const (
	RecomputeOnChange = "on_change"
	RecomputeOnDemand = "on_demand"
)

// Location sources.
const (
	LocationNone   = "none"
	LocationStatic = "static"
	LocationGPSD   = "gpsd"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Render: Render{
			CodeSize:        defaultCodeSize,
			ErrorCorrection: defaultErrorCorrection,
		},
		Pipeline: Pipeline{
			Recompute:  defaultRecompute,
			DebounceMS: defaultDebounceMS,
		},
		Location: Location{
			Source:         defaultLocationSource,
			GPSDAddress:    defaultGPSDAddress,
			TimeoutSeconds: defaultLocationTimeout,
		},
		Server: Server{
			Bind:        defaultServerBind,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Journal: Journal{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
