//go:build linux

// Package uinput delivers key events through a kernel virtual keyboard, for
// sessions where synthetic X events cannot reach the destination (Wayland).
// Other software cannot tell the device from physical hardware.
package uinput

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"xtype/countdown"
	"xtype/keymap"
	"xtype/log"
)

// ioctl requests from linux/uinput.h.
const (
	uiSetEvbit   = 0x40045564
	uiSetKeybit  = 0x40045565
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
)

// Event types from linux/input-event-codes.h.
const (
	evSyn     = 0x00
	evKey     = 0x01
	synReport = 0
)

const busUSB = 0x03

// settleTime is how long the rest of the input stack needs to recognize a
// freshly created virtual device before its events are picked up reliably.
const settleTime = time.Second

const actionDelay = 10 * time.Millisecond

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputUserDev is the device-setup record written once before UI_DEV_CREATE.
type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// Backend owns one virtual keyboard for the lifetime of the session.
type Backend struct {
	f       *os.File
	out     io.Writer
	created time.Time
	wait    time.Duration
}

// New creates the virtual keyboard: capability declarations for every keycode
// the raw mapper can produce, device identity, UI_DEV_CREATE. Failing here is
// fatal at startup (missing uinput module, insufficient permissions).
func New(wait time.Duration) (*Backend, error) {
	path := "/dev/uinput"
	if _, err := os.Stat(path); err != nil {
		path = "/dev/input/uinput"
		if _, err := os.Stat(path); err != nil {
			return nil, errors.New("uinput device not found, try: sudo modprobe uinput")
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := create(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Backend{f: f, out: f, created: time.Now(), wait: wait}, nil
}

func create(f *os.File) error {
	if err := ioctl(f, uiSetEvbit, evKey); err != nil {
		return fmt.Errorf("declaring key capability: %w", err)
	}
	if err := ioctl(f, uiSetEvbit, evSyn); err != nil {
		return fmt.Errorf("declaring sync capability: %w", err)
	}
	for _, code := range keymap.RawKeycodes() {
		if err := ioctl(f, uiSetKeybit, uintptr(code)); err != nil {
			return fmt.Errorf("declaring keycode %d: %w", code, err)
		}
	}
	var dev uinputUserDev
	copy(dev.Name[:], "xtype virtual keyboard")
	dev.ID.Bustype = busUSB
	dev.ID.Vendor = 0x1234
	dev.ID.Product = 0x5678
	dev.ID.Version = 1
	if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
		return fmt.Errorf("writing device setup record: %w", err)
	}
	if err := ioctl(f, uiDevCreate, 0); err != nil {
		return fmt.Errorf("creating virtual device: %w", err)
	}
	return nil
}

func ioctl(f *os.File, req, arg uintptr) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, arg); errno != 0 {
		return errno
	}
	return nil
}

// Sequence maps text through the fixed keycode tables.
func (b *Backend) Sequence(text string) ([]keymap.Action, error) {
	return keymap.BuildRawSequence(text)
}

// Synchronize waits out the device settle time, then runs the operator
// countdown. An abort propagates before any event is written.
func (b *Backend) Synchronize() error {
	if elapsed := time.Since(b.created); elapsed < settleTime {
		time.Sleep(settleTime - elapsed)
	}
	return countdown.Run(b.wait)
}

// Inject writes the sequence as hardware input events. Each action is
// followed by a SYN_REPORT so readers see it immediately. A write failure is
// fatal mid-sequence: the operator retries the whole paste, there is no
// resend of partial text.
func (b *Backend) Inject(actions []keymap.Action) error {
	for i, a := range actions {
		if i > 0 {
			time.Sleep(actionDelay)
		}
		if err := writeAction(b.out, a); err != nil {
			return fmt.Errorf("writing to virtual device: %w", err)
		}
	}
	return nil
}

// writeAction emits one key event record plus its sync report.
func writeAction(w io.Writer, a keymap.Action) error {
	value := int32(0)
	if a.Press {
		value = 1
	}
	if err := binary.Write(w, binary.LittleEndian, &inputEvent{Type: evKey, Code: a.Code, Value: value}); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, &inputEvent{Type: evSyn, Code: synReport})
}

// Release destroys the virtual device and closes it. Always attempted, also
// after an injection error.
func (b *Backend) Release() {
	if err := ioctl(b.f, uiDevDestroy, 0); err != nil {
		log.Warnf("destroying virtual device: %v", err)
	}
	b.f.Close()
}
