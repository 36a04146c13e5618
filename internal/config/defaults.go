package config

// Decoder modes.
const (
	DecoderModeNative   = "native"
	DecoderModeExternal = "external"
)

const (
	defaultConfigPath     = "~/.config/replaykit/config.toml"
	projectConfigName     = "replaykit.toml"
	defaultLibraryPath    = "~/.local/share/replaykit/library.db"
	defaultDecoderMode    = DecoderModeNative
	defaultDecoderBinary  = "r6-dissect"
	defaultDecoderTimeout = 30
	defaultDecoderWorkers = 4
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Decoder: Decoder{
			Mode:           defaultDecoderMode,
			Binary:         defaultDecoderBinary,
			TimeoutSeconds: defaultDecoderTimeout,
			Workers:        defaultDecoderWorkers,
		},
		Library: Library{
			Path: defaultLibraryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
