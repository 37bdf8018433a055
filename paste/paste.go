// Package paste orchestrates one synthesize-and-deliver session against one
// of the two delivery backends.
package paste

import (
	"time"

	"xtype/keymap"
	"xtype/log"
	"xtype/uinput"
	"xtype/x11"
)

// Backend is one live connection to an input subsystem. Exactly one exists
// per process and it is never switched mid-session.
type Backend interface {
	// Sequence maps text to the backend's press/release actions.
	Sequence(text string) ([]keymap.Action, error)
	// Synchronize blocks until it is safe to paste: the confirm-key grab
	// or the operator countdown, depending on the backend.
	Synchronize() error
	// Inject transmits a built sequence.
	Inject(actions []keymap.Action) error
	// Release tears down the connection or device.
	Release()
}

// Select picks the backend for this session type, read once at startup.
// Wayland sessions cannot receive synthetic X events, so they get the virtual
// keyboard; everything else talks to the X server directly.
func Select(sessionType string, wait time.Duration) (Backend, error) {
	if sessionType == "wayland" {
		log.Debugf("%q session: using virtual keyboard backend", sessionType)
		b, err := uinput.New(wait)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	log.Debugf("using X protocol backend")
	b, err := x11.New(sessionType)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Run executes one full paste. The sequence is built first so mapping errors
// surface before the operator is made to wait; the backend is released on
// every path out.
func Run(b Backend, text string) error {
	defer b.Release()

	actions, err := b.Sequence(text)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		log.Warn("nothing to paste after mapping")
		return nil
	}
	if err := b.Synchronize(); err != nil {
		return err
	}
	return b.Inject(actions)
}
