// Package services defines shared utilities consumed by the remote service
// clients and the acquisition pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp scan correlation identifiers and the active
//     acquisition strategy for logging and request tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (unavailable vs protocol vs timeout) uniform across
//     clients.
package services
