package scan

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"rfidmusic/internal/logging"
)

// Validated is an identifier that passed shape and dedup checks.
type Validated struct {
	RFID       string
	AcceptedAt time.Time
}

// Validator applies the identifier shape rules and the global dedup window.
// Rejections are logged and dropped; they never stop the read loop.
type Validator struct {
	minLength int
	maxLength int
	window    time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu           sync.Mutex
	lastAccepted time.Time
}

// NewValidator constructs a validator with the given length bounds and
// dedup window.
func NewValidator(minLength, maxLength int, window time.Duration, logger *slog.Logger) *Validator {
	return &Validator{
		minLength: minLength,
		maxLength: maxLength,
		window:    window,
		logger:    logging.NewComponentLogger(logger, "validator"),
		now:       time.Now,
	}
}

// Validate checks one candidate. It reports false when the candidate fails
// the shape rules or arrives inside the dedup window of the previous
// acceptance. The dedup timestamp only advances on acceptance.
func (v *Validator) Validate(candidate string) (Validated, bool) {
	if !v.shapeOK(candidate) {
		v.logger.Warn("invalid identifier rejected",
			logging.String(logging.FieldRFID, candidate),
			logging.String(logging.FieldEventType, "scan_rejected"),
			logging.Int("length", len(candidate)),
		)
		return Validated{}, false
	}

	now := v.now()

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.lastAccepted.IsZero() && now.Sub(v.lastAccepted) < v.window {
		v.logger.Debug("duplicate scan ignored",
			logging.String(logging.FieldRFID, candidate),
			logging.Duration("since_last", now.Sub(v.lastAccepted)),
		)
		return Validated{}, false
	}
	v.lastAccepted = now
	return Validated{RFID: candidate, AcceptedAt: now}, true
}

func (v *Validator) shapeOK(candidate string) bool {
	if len(candidate) < v.minLength || len(candidate) > v.maxLength {
		return false
	}
	stripped := strings.ReplaceAll(candidate, " ", "")
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
