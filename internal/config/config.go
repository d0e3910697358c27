package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir       string `toml:"log_dir"`
	DatabasePath string `toml:"database_path"`
	WebBind      string `toml:"web_bind"`
}

// Consumer locates the mapping web service the listener delivers scans to.
type Consumer struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	HealthPoll     int    `toml:"health_poll_seconds"`
	RequestTimeout int    `toml:"request_timeout_seconds"`
}

// BaseURL returns the consumer's base URL.
func (c Consumer) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Reader contains RFID reader discovery settings.
type Reader struct {
	// Device forces a specific event device and skips discovery when set.
	Device string `toml:"device"`
	// Patterns are case-insensitive regular expressions matched against
	// device registry blocks and by-id entry names. Extend this list to
	// support new reader hardware.
	Patterns     []string `toml:"patterns"`
	ProbeTimeout int      `toml:"probe_timeout_seconds"`
	EnumerateMax int      `toml:"enumerate_max"`
	HotplugWatch bool     `toml:"hotplug_watch"`
}

// Scan contains identifier assembly and validation settings.
type Scan struct {
	DebounceSeconds    float64 `toml:"debounce_seconds"`
	MinLength          int     `toml:"min_length"`
	MaxLength          int     `toml:"max_length"`
	DedupWindowSeconds float64 `toml:"dedup_window_seconds"`
}

// Debounce returns the inactivity flush interval.
func (s Scan) Debounce() time.Duration {
	return time.Duration(s.DebounceSeconds * float64(time.Second))
}

// DedupWindow returns the minimum time between accepted identifiers.
func (s Scan) DedupWindow() time.Duration {
	return time.Duration(s.DedupWindowSeconds * float64(time.Second))
}

// Playback locates the remote playback host.
type Playback struct {
	Enabled        bool   `toml:"enabled"`
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	RequestTimeout int    `toml:"request_timeout_seconds"`
}

// BaseURL returns the playback host's base URL.
func (p Playback) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", p.Host, p.Port)
}

// Library contains the music directory configuration.
type Library struct {
	MusicDir string `toml:"music_dir"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the RFID music stack.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Consumer Consumer `toml:"consumer"`
	Reader   Reader   `toml:"reader"`
	Scan     Scan     `toml:"scan"`
	Playback Playback `toml:"playback"`
	Library  Library  `toml:"library"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rfidmusic/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.DatabasePath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
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
