// Package store persists RFID-to-directory mappings in SQLite.
package store
