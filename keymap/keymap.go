// Package keymap translates text into ordered press/release key actions for
// the delivery backends. The symbol variant maps characters to X keysym names
// that a live layout resolves to keycodes; the raw variant maps characters
// straight to kernel keycodes from a fixed qwerty table.
package keymap

import (
	"fmt"
	"strings"
)

// Modifier bits as defined by the X protocol. The raw-keycode path carries no
// modifier state; shift is an ordinary key there.
const (
	ModShift uint16 = 1 << 0
	ModLock  uint16 = 1 << 1
	ModNum   uint16 = 1 << 4
)

// Keystate is a resolved hardware key plus the modifier bits required to
// produce a symbol on the currently mapped layout.
type Keystate struct {
	Code uint16
	Mods uint16
}

// Action is a single hardware press or release, the unit a backend transmits.
type Action struct {
	Code  uint16
	Mods  uint16
	Press bool
}

// Resolver looks up a named symbol in the live layout of a backend. ok is
// false when no key on the current layout produces the symbol.
type Resolver interface {
	Resolve(symbol string) (Keystate, bool)
}

// noSymbol marks characters that must never be pasted.
const noSymbol = ""

// symbolNames maps characters that do not name their own keysym. Letters and
// digits resolve as themselves.
var symbolNames = map[rune]string{
	' ':  "space",
	'\t': "Tab",
	'\n': "Return",
	'\r': noSymbol,
	'!':  "exclam",
	'"':  "quotedbl",
	'#':  "numbersign",
	'$':  "dollar",
	'%':  "percent",
	'&':  "ampersand",
	'\'': "apostrophe",
	'(':  "parenleft",
	')':  "parenright",
	'*':  "asterisk",
	'+':  "plus",
	',':  "comma",
	'-':  "minus",
	'.':  "period",
	'/':  "slash",
	':':  "colon",
	';':  "semicolon",
	'<':  "less",
	'=':  "equal",
	'>':  "greater",
	'?':  "question",
	'@':  "at",
	'[':  "bracketleft",
	'\\': "backslash",
	']':  "bracketright",
	'^':  "asciicircum",
	'_':  "underscore",
	'`':  "grave",
	'{':  "braceleft",
	'|':  "bar",
	'}':  "braceright",
	'~':  "asciitilde",
}

// SymbolName returns the keysym name for ch. ignore is true for characters
// that are skipped outright (carriage return); ok is false when ch has no
// symbol at all.
func SymbolName(ch rune) (name string, ignore, ok bool) {
	if name, found := symbolNames[ch]; found {
		if name == noSymbol {
			return "", true, false
		}
		return name, false, true
	}
	if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' {
		return string(ch), false, true
	}
	return "", false, false
}

// UnmappedError reports every character of the input that no key can produce,
// so the whole buffer is diagnosed in one pass instead of one character at a
// time.
type UnmappedError struct {
	Chars []rune
}

func (e *UnmappedError) Error() string {
	quoted := make([]string, len(e.Chars))
	for i, ch := range e.Chars {
		quoted[i] = fmt.Sprintf("%q", ch)
	}
	return "no key mapping for characters: " + strings.Join(quoted, ", ")
}

// unmapped collects offending characters in input order, once each.
type unmapped struct {
	seen  map[rune]bool
	chars []rune
}

func (u *unmapped) add(ch rune) {
	if u.seen == nil {
		u.seen = make(map[rune]bool)
	}
	if !u.seen[ch] {
		u.seen[ch] = true
		u.chars = append(u.chars, ch)
	}
}

func (u *unmapped) err() error {
	if len(u.chars) == 0 {
		return nil
	}
	return &UnmappedError{Chars: u.chars}
}
