package config

import (
	"fmt"
	"regexp"
	"strings"
)

// normalize expands paths and fills zero values with defaults.
func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return err
	}
	if c.Library.MusicDir, err = expandPath(c.Library.MusicDir); err != nil {
		return err
	}

	c.Consumer.Host = strings.TrimSpace(c.Consumer.Host)
	c.Playback.Host = strings.TrimSpace(c.Playback.Host)
	c.Reader.Device = strings.TrimSpace(c.Reader.Device)

	if c.Consumer.HealthPoll <= 0 {
		c.Consumer.HealthPoll = defaultHealthPoll
	}
	if c.Consumer.RequestTimeout <= 0 {
		c.Consumer.RequestTimeout = defaultRequestTimeout
	}
	if c.Playback.RequestTimeout <= 0 {
		c.Playback.RequestTimeout = defaultRequestTimeout
	}
	if c.Reader.ProbeTimeout <= 0 {
		c.Reader.ProbeTimeout = defaultProbeTimeout
	}
	if c.Reader.EnumerateMax <= 0 {
		c.Reader.EnumerateMax = defaultEnumerateMax
	}
	if len(c.Reader.Patterns) == 0 {
		c.Reader.Patterns = append([]string{}, defaultReaderPatterns...)
	}
	if c.Scan.DebounceSeconds <= 0 {
		c.Scan.DebounceSeconds = defaultDebounce
	}
	if c.Scan.DedupWindowSeconds <= 0 {
		c.Scan.DedupWindowSeconds = defaultDedupWindow
	}
	return nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Consumer.Host == "" {
		return fmt.Errorf("consumer host is required")
	}
	if c.Consumer.Port <= 0 || c.Consumer.Port > 65535 {
		return fmt.Errorf("consumer port %d out of range", c.Consumer.Port)
	}
	if c.Scan.MinLength <= 0 {
		return fmt.Errorf("scan min_length must be positive")
	}
	if c.Scan.MaxLength < c.Scan.MinLength {
		return fmt.Errorf("scan max_length %d below min_length %d", c.Scan.MaxLength, c.Scan.MinLength)
	}
	if c.Playback.Enabled {
		if c.Playback.Port <= 0 || c.Playback.Port > 65535 {
			return fmt.Errorf("playback port %d out of range", c.Playback.Port)
		}
	}
	for _, pattern := range c.Reader.Patterns {
		if _, err := regexp.Compile("(?i)" + pattern); err != nil {
			return fmt.Errorf("reader pattern %q: %w", pattern, err)
		}
	}
	return nil
}
