// Package webapp implements the mapping web service. It receives scanned
// identifiers from the listener, resolves them against the RFID-to-album
// mappings in the store, triggers playback for mapped identifiers, and
// exposes a JSON API for assigning tags to music directories.
package webapp
