// Package listener runs the scan acquisition pipeline: strategy selection
// between device and stdin reads, identifier assembly with debounce,
// validation with deduplication, and delivery to the mapping web service.
package listener
