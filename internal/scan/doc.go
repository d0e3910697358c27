// Package scan assembles reader keystrokes into candidate identifiers and
// applies the shape and dedup rules that gate delivery.
package scan
