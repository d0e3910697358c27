package evdev

import "encoding/binary"

// Linux input event classes and key transition values. Only the subset the
// listener cares about is defined here.
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01

	KeyRelease int32 = 0
	KeyPress   int32 = 1
	KeyRepeat  int32 = 2
)

// Event mirrors the kernel input_event struct on 64-bit platforms: two
// native-long timestamp fields followed by type, code, and value. The
// timestamps are informational only.
type Event struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// EventSize is the wire size of one input_event record.
const EventSize = 24

// Decode interprets a single fixed-size record. It reports false when buf is
// not exactly one record long; callers treat that as a transient short read
// and retry on the next read without buffering the partial data.
func Decode(buf []byte) (Event, bool) {
	if len(buf) != EventSize {
		return Event{}, false
	}
	return Event{
		Sec:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}, true
}

// IsKeyPress reports whether the event is a key going down. Releases and
// auto-repeats are not meaningful for scan assembly.
func (e Event) IsKeyPress() bool {
	return e.Type == EvKey && e.Value == KeyPress
}
