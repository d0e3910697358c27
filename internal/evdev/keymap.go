package evdev

// KeyEnter is the keycode the reader emits as its scan terminator.
const KeyEnter uint16 = 28

// Token is a translated key event: either a printable character or the
// scan terminator.
type Token struct {
	Char       rune
	Terminator bool
}

// keymap covers the codes a keyboard-wedge RFID reader actually emits:
// digits and the letter rows. The table is intentionally partial; unmapped
// codes are silently ignored rather than treated as a defect.
var keymap = map[uint16]rune{
	2: '1', 3: '2', 4: '3', 5: '4', 6: '5',
	7: '6', 8: '7', 9: '8', 10: '9', 11: '0',
	16: 'q', 17: 'w', 18: 'e', 19: 'r', 20: 't',
	21: 'y', 22: 'u', 23: 'i', 24: 'o', 25: 'p',
	30: 'a', 31: 's', 32: 'd', 33: 'f', 34: 'g',
	35: 'h', 36: 'j', 37: 'k', 38: 'l',
	44: 'z', 45: 'x', 46: 'c', 47: 'v', 48: 'b',
	49: 'n', 50: 'm',
}

// Translate maps a decoded event to a token. It reports false for anything
// that is not a key press of a mapped code: releases, repeats, non-key
// events, and table misses all yield nothing.
func Translate(e Event) (Token, bool) {
	if !e.IsKeyPress() {
		return Token{}, false
	}
	if e.Code == KeyEnter {
		return Token{Terminator: true}, true
	}
	ch, ok := keymap[e.Code]
	if !ok {
		return Token{}, false
	}
	return Token{Char: ch}, true
}
