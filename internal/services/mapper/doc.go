// Package mapper is the listener's client for the mapping web service.
package mapper
