// Package x11 delivers synthetic key events over the X protocol to whichever
// window holds input focus. Synchronization is a grab on the confirm key
// (Enter): the operator moves focus to the destination window and presses
// Enter there, and injection targets the focus window as it is at that
// moment.
package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"xtype/keymap"
	"xtype/log"
)

const (
	keysymReturn  xproto.Keysym = 0xff0d
	keysymKPEnter xproto.Keysym = 0xff8d
)

// actionDelay separates consecutive synthetic events so slow receivers keep
// up.
const actionDelay = 10 * time.Millisecond

// namedKeysyms resolves the multi-character symbol names the mapper emits.
// Single-character names are Latin-1 keysyms and equal their codepoint.
var namedKeysyms = map[string]xproto.Keysym{
	"space":        0x20,
	"exclam":       0x21,
	"quotedbl":     0x22,
	"numbersign":   0x23,
	"dollar":       0x24,
	"percent":      0x25,
	"ampersand":    0x26,
	"apostrophe":   0x27,
	"parenleft":    0x28,
	"parenright":   0x29,
	"asterisk":     0x2a,
	"plus":         0x2b,
	"comma":        0x2c,
	"minus":        0x2d,
	"period":       0x2e,
	"slash":        0x2f,
	"colon":        0x3a,
	"semicolon":    0x3b,
	"less":         0x3c,
	"equal":        0x3d,
	"greater":      0x3e,
	"question":     0x3f,
	"at":           0x40,
	"bracketleft":  0x5b,
	"backslash":    0x5c,
	"bracketright": 0x5d,
	"asciicircum":  0x5e,
	"underscore":   0x5f,
	"grave":        0x60,
	"braceleft":    0x7b,
	"bar":          0x7c,
	"braceright":   0x7d,
	"asciitilde":   0x7e,
	"Tab":          0xff09,
	"Return":       0xff0d,
}

func keysymFromName(name string) (xproto.Keysym, bool) {
	if len(name) == 1 {
		return xproto.Keysym(name[0]), true
	}
	sym, ok := namedKeysyms[name]
	return sym, ok
}

// grabMods are the lock-modifier combinations the confirm key is grabbed
// under. A grab only fires when every active lock modifier is part of the
// registration, so plain, caps-lock, num-lock and both must each be covered.
var grabMods = []uint16{
	0,
	keymap.ModLock,
	keymap.ModNum,
	keymap.ModLock | keymap.ModNum,
}

// Backend is one live X connection. Exactly one exists per process.
type Backend struct {
	conn    *xgb.Conn
	root    xproto.Window
	minCode xproto.Keycode
	keysyms []xproto.Keysym
	perCode int
}

// New connects to the display and loads the current keyboard mapping, so an
// unreachable display fails the session before the operator is made to wait.
// A connection failure under a non-X session type is reported as such: the
// remedy differs from a plain connection problem.
func New(sessionType string) (*Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		if sessionType != "" && sessionType != "x11" {
			return nil, fmt.Errorf("X key event delivery is not possible in a %q session: %w", sessionType, err)
		}
		return nil, fmt.Errorf("connecting to X display: %w", err)
	}
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	first := setup.MinKeycode
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	mapping, err := xproto.GetKeyboardMapping(conn, first, count).Reply()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading keyboard mapping: %w", err)
	}
	return &Backend{
		conn:    conn,
		root:    screen.Root,
		minCode: first,
		keysyms: mapping.Keysyms,
		perCode: int(mapping.KeysymsPerKeycode),
	}, nil
}

// Resolve implements keymap.Resolver against the live layout: column 0 holds
// the unshifted symbol at a keycode, column 1 the shifted one. The layout may
// legitimately have no key for a symbol; that is a lookup miss, not a crash.
func (b *Backend) Resolve(symbol string) (keymap.Keystate, bool) {
	sym, ok := keysymFromName(symbol)
	if !ok || sym == 0 {
		return keymap.Keystate{}, false
	}
	for i := 0; (i+1)*b.perCode <= len(b.keysyms); i++ {
		row := b.keysyms[i*b.perCode : (i+1)*b.perCode]
		code := uint16(b.minCode) + uint16(i)
		if row[0] == sym {
			return keymap.Keystate{Code: code}, true
		}
		if b.perCode > 1 && row[1] == sym {
			return keymap.Keystate{Code: code, Mods: keymap.ModShift}, true
		}
	}
	return keymap.Keystate{}, false
}

// Sequence builds the press/release actions for text against the live layout.
func (b *Backend) Sequence(text string) ([]keymap.Action, error) {
	return keymap.BuildSymbolSequence(text, b)
}

// confirmKeycodes returns every keycode producing Enter, main and keypad
// variants both.
func (b *Backend) confirmKeycodes() []xproto.Keycode {
	var codes []xproto.Keycode
	for i := 0; (i+1)*b.perCode <= len(b.keysyms); i++ {
		row := b.keysyms[i*b.perCode : (i+1)*b.perCode]
		for _, sym := range row {
			if sym == keysymReturn || sym == keysymKPEnter {
				codes = append(codes, b.minCode+xproto.Keycode(i))
				break
			}
		}
	}
	return codes
}

type grab struct {
	code xproto.Keycode
	mods uint16
}

// Synchronize arms an exclusive grab on the confirm key at the root window
// and blocks until its release event arrives. The grab is dropped on every
// exit path.
func (b *Backend) Synchronize() error {
	codes := b.confirmKeycodes()
	if len(codes) == 0 {
		return fmt.Errorf("current layout has no keycode for the confirm key")
	}
	grabbed, err := b.grabAll(codes)
	defer b.ungrabAll(grabbed)
	if err != nil {
		return err
	}
	log.Info("press Enter in the destination window to paste")
	return b.waitForRelease(codes)
}

func (b *Backend) grabAll(codes []xproto.Keycode) ([]grab, error) {
	var grabbed []grab
	for _, code := range codes {
		for _, mods := range grabMods {
			err := xproto.GrabKeyChecked(b.conn, true, b.root, mods, code,
				xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
			if err != nil {
				return grabbed, fmt.Errorf("grabbing confirm key (keycode %d, modifiers %#x): %w (is another paste already waiting?)", code, mods, err)
			}
			grabbed = append(grabbed, grab{code: code, mods: mods})
		}
	}
	return grabbed, nil
}

func (b *Backend) ungrabAll(grabbed []grab) {
	for _, g := range grabbed {
		if err := xproto.UngrabKeyChecked(b.conn, g.code, b.root, g.mods).Check(); err != nil {
			log.Warnf("releasing confirm key grab: %v", err)
		}
	}
}

// waitForRelease blocks on the event stream until a confirm keycode is
// released. Presses are ignored: a press may be a key held down since before
// arming, only the release confirms intent.
func (b *Backend) waitForRelease(codes []xproto.Keycode) error {
	for {
		ev, xerr := b.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return fmt.Errorf("X connection closed while waiting for the confirm key")
		}
		if xerr != nil {
			log.Warnf("X error while waiting: %v", xerr)
			continue
		}
		release, ok := ev.(xproto.KeyReleaseEvent)
		if !ok {
			continue
		}
		for _, code := range codes {
			if release.Detail == code {
				return nil
			}
		}
	}
}

// Inject transmits the sequence to the window holding focus now, which may
// well differ from the focus window at arm time; that is the whole point of
// the confirm-key handshake.
func (b *Backend) Inject(actions []keymap.Action) error {
	focus, err := xproto.GetInputFocus(b.conn).Reply()
	if err != nil {
		return fmt.Errorf("querying focus window: %w", err)
	}
	target := focus.Focus
	log.Debugf("injecting %d events into window %#x", len(actions), uint32(target))
	for i, a := range actions {
		if i > 0 {
			time.Sleep(actionDelay)
		}
		if err := b.send(target, a); err != nil {
			return err
		}
	}
	// Full round trip so everything is delivered before the process exits.
	b.conn.Sync()
	return nil
}

func (b *Backend) send(target xproto.Window, a keymap.Action) error {
	ev := xproto.KeyPressEvent{
		Detail:     xproto.Keycode(a.Code),
		Time:       xproto.TimeCurrentTime,
		Root:       b.root,
		Event:      target,
		State:      a.Mods,
		SameScreen: true,
	}
	var (
		data []byte
		mask uint32
	)
	if a.Press {
		data = ev.Bytes()
		mask = xproto.EventMaskKeyPress
	} else {
		data = xproto.KeyReleaseEvent(ev).Bytes()
		mask = xproto.EventMaskKeyRelease
	}
	err := xproto.SendEventChecked(b.conn, false, target, mask, string(data)).Check()
	if err != nil {
		return fmt.Errorf("sending key event (keycode %d): %w", a.Code, err)
	}
	return nil
}

// Release closes the connection. Connection loss during Synchronize or
// Inject is fatal with no retry: the target window identity would be stale.
func (b *Backend) Release() {
	b.conn.Close()
}
