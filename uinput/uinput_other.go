//go:build !linux

package uinput

import (
	"errors"
	"time"

	"xtype/keymap"
)

var errUnsupported = errors.New("virtual keyboard injection requires Linux uinput")

// Backend is only functional on Linux, where the kernel exposes uinput.
type Backend struct{}

func New(time.Duration) (*Backend, error) {
	return nil, errUnsupported
}

func (b *Backend) Sequence(string) ([]keymap.Action, error) { return nil, errUnsupported }
func (b *Backend) Synchronize() error                       { return errUnsupported }
func (b *Backend) Inject([]keymap.Action) error             { return errUnsupported }
func (b *Backend) Release()                                 {}
