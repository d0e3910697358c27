package testsupport

import (
	"path/filepath"
	"testing"

	"rfidmusic/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "rfid_music.db")
	cfgVal.Paths.WebBind = "127.0.0.1:0"
	cfgVal.Library.MusicDir = filepath.Join(base, "music")
	cfgVal.Reader.HotplugWatch = false
	cfgVal.Playback.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMusicDir overrides the music library root on the test config.
func WithMusicDir(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.MusicDir = path
	}
}

// WithReaderDevice forces a specific event device path on the test config.
func WithReaderDevice(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reader.Device = path
	}
}

// WithScanTiming overrides the debounce and dedup windows on the test config.
func WithScanTiming(debounceSeconds, dedupSeconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.DebounceSeconds = debounceSeconds
		b.cfg.Scan.DedupWindowSeconds = dedupSeconds
	}
}
