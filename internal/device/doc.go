// Package device discovers the RFID reader's input device, probes it for
// liveness, and watches for hotplug attach events.
package device
