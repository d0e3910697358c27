// Package config loads, normalizes, and validates the TOML configuration
// shared by the listener and the mapping web service.
package config
