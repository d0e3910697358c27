// Package playback is the client for the remote host that owns the audio
// player process.
package playback
