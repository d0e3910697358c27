package config

const (
	defaultLogDir         = "~/.local/share/rfidmusic/logs"
	defaultDatabasePath   = "~/.local/share/rfidmusic/rfid_music.db"
	defaultWebBind        = "127.0.0.1:5000"
	defaultConsumerHost   = "localhost"
	defaultConsumerPort   = 5000
	defaultHealthPoll     = 5
	defaultRequestTimeout = 5
	defaultProbeTimeout   = 5
	defaultEnumerateMax   = 20
	defaultDebounce       = 2.0
	defaultMinLength      = 6
	defaultMaxLength      = 20
	defaultDedupWindow    = 1.0
	defaultPlaybackPort   = 5001
	defaultMusicDir       = "~/music"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// defaultReaderPatterns match the keyboard-wedge RFID readers supported so
// far. Matching is case-insensitive; vendor:product pairs are hex.
var defaultReaderPatterns = []string{
	`OKE.*Electron`,
	`Chic.*Technology`,
	`05fe:1010`,
	`RFID`,
	`Card.*Reader`,
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:       defaultLogDir,
			DatabasePath: defaultDatabasePath,
			WebBind:      defaultWebBind,
		},
		Consumer: Consumer{
			Host:           defaultConsumerHost,
			Port:           defaultConsumerPort,
			HealthPoll:     defaultHealthPoll,
			RequestTimeout: defaultRequestTimeout,
		},
		Reader: Reader{
			Patterns:     append([]string{}, defaultReaderPatterns...),
			ProbeTimeout: defaultProbeTimeout,
			EnumerateMax: defaultEnumerateMax,
			HotplugWatch: true,
		},
		Scan: Scan{
			DebounceSeconds:    defaultDebounce,
			MinLength:          defaultMinLength,
			MaxLength:          defaultMaxLength,
			DedupWindowSeconds: defaultDedupWindow,
		},
		Playback: Playback{
			Enabled:        true,
			Port:           defaultPlaybackPort,
			RequestTimeout: defaultRequestTimeout,
		},
		Library: Library{
			MusicDir: defaultMusicDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
