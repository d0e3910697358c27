package scan

import (
	"strings"
	"sync"
	"time"

	"rfidmusic/internal/evdev"
)

// Assembler accumulates translated characters into candidate identifiers.
// A scan completes either on the explicit terminator or when no character
// arrives for the debounce interval. At most one flush timer is pending at
// any time; a new character always cancels it before rescheduling.
//
// The timer callback and the read loop share the buffer and serialize on the
// same mutex, so a flush can never fire against a buffer that a terminator
// already reset.
type Assembler struct {
	debounce time.Duration
	emit     func(string)

	mu    sync.Mutex
	buf   []rune
	timer *time.Timer
	gen   uint64
}

// NewAssembler constructs an assembler that calls emit with each completed
// candidate. emit runs outside the assembler lock.
func NewAssembler(debounce time.Duration, emit func(string)) *Assembler {
	return &Assembler{debounce: debounce, emit: emit}
}

// Push feeds one translated token into the assembler.
func (a *Assembler) Push(tok evdev.Token) {
	if tok.Terminator {
		a.PushTerminator()
		return
	}
	a.PushChar(tok.Char)
}

// PushChar appends a character and reschedules the inactivity flush.
func (a *Assembler) PushChar(ch rune) {
	a.mu.Lock()
	a.cancelTimerLocked()
	a.buf = append(a.buf, ch)
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.debounce, func() { a.timerFlush(gen) })
	a.mu.Unlock()
}

// PushTerminator flushes the buffer immediately. With an empty buffer it is
// a no-op.
func (a *Assembler) PushTerminator() {
	a.mu.Lock()
	a.cancelTimerLocked()
	candidate := a.takeLocked()
	a.mu.Unlock()

	if candidate != "" {
		a.emit(candidate)
	}
}

// Stop cancels any pending flush without emitting. Used on shutdown.
func (a *Assembler) Stop() {
	a.mu.Lock()
	a.cancelTimerLocked()
	a.buf = nil
	a.mu.Unlock()
}

func (a *Assembler) timerFlush(gen uint64) {
	a.mu.Lock()
	if gen != a.gen {
		// A character or terminator intervened; this fire is stale.
		a.mu.Unlock()
		return
	}
	a.timer = nil
	candidate := a.takeLocked()
	a.mu.Unlock()

	if candidate != "" {
		a.emit(candidate)
	}
}

func (a *Assembler) cancelTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
}

func (a *Assembler) takeLocked() string {
	candidate := strings.TrimSpace(string(a.buf))
	a.buf = nil
	return candidate
}
