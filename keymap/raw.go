package keymap

import "sort"

// Kernel keycodes used outside the layout strings.
const (
	KeyLeftShift uint16 = 42
	KeySpace     uint16 = 57
)

// Symbol produced at each kernel keycode position, unshifted and shifted.
// The index is the keycode; a space marks a position the mapper never uses.
// The space character itself collides with the padding and is special-cased
// to KeySpace when the table is built.
const (
	rawBase  = "  1234567890-= \tqwertyuiop[]\n asdfghjkl;'` \\zxcvbnm,./"
	rawShift = "  !@#$%^&*()_+  QWERTYUIOP{}  ASDFGHJKL:\"~ |ZXCVBNM<>?"
)

var rawKeys = buildRawKeys()

func buildRawKeys() map[rune][]uint16 {
	m := make(map[rune][]uint16)
	for i, ch := range rawBase {
		if ch != ' ' {
			m[ch] = []uint16{uint16(i)}
		}
	}
	for i, ch := range rawShift {
		if ch != ' ' {
			m[ch] = []uint16{KeyLeftShift, uint16(i)}
		}
	}
	m[' '] = []uint16{KeySpace}
	return m
}

// RawKeys returns the keycodes pressed, in order, to produce ch on the fixed
// qwerty layout: one code for a plain key, two (shift, base) for a shifted
// one.
func RawKeys(ch rune) ([]uint16, bool) {
	keys, ok := rawKeys[ch]
	return keys, ok
}

// RawKeycodes lists every keycode the raw mapper can emit, sorted, for
// declaring device capabilities.
func RawKeycodes() []uint16 {
	seen := make(map[uint16]bool)
	var codes []uint16
	for _, keys := range rawKeys {
		for _, code := range keys {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
