// Package main hosts the rfidmusic CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the scan listener, serves the mapping
// web service, manages tag assignments, and scaffolds configuration. It
// centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
package main
