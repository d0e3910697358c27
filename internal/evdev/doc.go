// Package evdev decodes Linux input_event records and translates key-press
// codes into the characters a keyboard-wedge RFID reader emits.
package evdev
