package keymap

import "fmt"

// ShiftKeycode is the fixed X keycode used to bracket shifted symbols with an
// explicit shift press. Right-hand shift, so a left shift the operator is
// still holding from the confirm key does not collide with the synthetic
// release.
const ShiftKeycode = 62

// Quirks replaces keycodes the live layout resolves to but that some
// receivers render incorrectly. The default entries move the keypad
// parenleft/parenright keycodes to shift+9 and shift+0. Only verified against
// the layouts the remap was written for; amend per layout.
var Quirks = map[uint16]Keystate{
	187: {Code: 18, Mods: ModShift},
	188: {Code: 19, Mods: ModShift},
}

// BuildSymbolSequence maps text through the symbol tables and the live layout
// into press/release actions. Symbols needing shift are bracketed by an
// explicit shift press and release: some receivers track modifier state
// separately from the modifier bits on the key event itself.
//
// Unmapped characters are collected and reported in one UnmappedError. A
// symbol needing modifiers other than shift means the layout is one this tool
// cannot type on, which is fatal rather than skippable.
func BuildSymbolSequence(text string, r Resolver) ([]Action, error) {
	var bad unmapped
	actions := make([]Action, 0, 2*len(text))
	for _, ch := range text {
		name, ignore, ok := SymbolName(ch)
		if ignore {
			continue
		}
		if !ok {
			bad.add(ch)
			continue
		}
		ks, ok := r.Resolve(name)
		if !ok {
			bad.add(ch)
			continue
		}
		if q, found := Quirks[ks.Code]; found {
			ks = q
		}
		if ks.Mods&^ModShift != 0 {
			return nil, fmt.Errorf("character %q needs modifiers beyond shift (mask %#x) on this layout", ch, ks.Mods)
		}
		shifted := ks.Mods&ModShift != 0
		if shifted {
			actions = append(actions, Action{Code: ShiftKeycode, Press: true})
		}
		actions = append(actions,
			Action{Code: ks.Code, Mods: ks.Mods, Press: true},
			Action{Code: ks.Code, Mods: ks.Mods, Press: false})
		if shifted {
			actions = append(actions, Action{Code: ShiftKeycode, Press: false})
		}
	}
	if err := bad.err(); err != nil {
		return nil, err
	}
	return actions, nil
}

// BuildRawSequence maps text through the fixed keycode tables: press each
// code of the tuple in order, release in reverse order, so shift wraps around
// the base key.
func BuildRawSequence(text string) ([]Action, error) {
	var bad unmapped
	actions := make([]Action, 0, 2*len(text))
	for _, ch := range text {
		if ch == '\r' {
			continue
		}
		keys, ok := RawKeys(ch)
		if !ok {
			bad.add(ch)
			continue
		}
		for _, code := range keys {
			actions = append(actions, Action{Code: code, Press: true})
		}
		for i := len(keys) - 1; i >= 0; i-- {
			actions = append(actions, Action{Code: keys[i], Press: false})
		}
	}
	if err := bad.err(); err != nil {
		return nil, err
	}
	return actions, nil
}
