// Package countdown gives the operator a fixed, visible window to focus the
// destination before the virtual-keyboard backend starts typing. The backend
// cannot observe window focus, so a countdown on the controlling terminal
// stands in for the confirm-key handshake the X backend uses.
package countdown

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrAborted reports an operator interrupt during the countdown. Nothing has
// been injected when it is returned.
var ErrAborted = errors.New("paste aborted by operator")

const (
	// Default countdown length when no flag overrides it.
	Default = 20 * time.Second

	// Display refresh and keystroke poll resolution.
	tick = 100 * time.Millisecond

	// A keystroke takes this much off the clock...
	shortenBy = 3 * time.Second
	// ...but never below this floor, so the operator always keeps enough
	// time to reach the destination window.
	floor = 4 * time.Second
)

// timer is the countdown state machine, kept free of terminal I/O.
type timer struct {
	remaining time.Duration
}

func (t *timer) tick(d time.Duration) {
	t.remaining -= d
}

// shorten applies one speed-up keystroke. The clock never drops below the
// floor, and a clock already under the floor is never extended by pressing
// keys.
func (t *timer) shorten() {
	limit := floor
	if t.remaining < limit {
		limit = t.remaining
	}
	if shortened := t.remaining - shortenBy; shortened > limit {
		t.remaining = shortened
	} else {
		t.remaining = limit
	}
}

func (t *timer) done() bool {
	return t.remaining <= 0
}

// seconds is the remaining time as displayed, rounded up.
func (t *timer) seconds() int {
	return int((t.remaining + time.Second - 1) / time.Second)
}

var lineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

// Run counts down on the controlling terminal in raw mode so single
// keystrokes register without Enter. Any key shortens the wait, Ctrl-C
// aborts. The prior terminal state is restored bit for bit on every path
// out. Without a controlling terminal there is nobody to rush or abort, so
// the full wait is simply slept.
func Run(total time.Duration) error {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		time.Sleep(total)
		return nil
	}
	defer tty.Close()

	fd := int(tty.Fd())
	prior, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting terminal raw mode: %w", err)
	}
	defer term.Restore(fd, prior)
	defer fmt.Fprint(tty, "\r\x1b[K")

	t := timer{remaining: total}
	buf := make([]byte, 1)
	for !t.done() {
		line := fmt.Sprintf("pasting in %2d s - focus the destination window (any key speeds up, Ctrl-C aborts)", t.seconds())
		fmt.Fprintf(tty, "\r\x1b[K%s", lineStyle.Render(line))

		// Tick by wall-clock time, whichever way the iteration ends:
		// under key auto-repeat the poll returns early every time, and a
		// fixed tick on the idle path alone would stall the clock.
		start := time.Now()
		ready, err := ttyReady(fd, tick)
		if err != nil {
			return fmt.Errorf("polling terminal: %w", err)
		}
		if ready {
			n, err := tty.Read(buf)
			if err != nil {
				return fmt.Errorf("reading terminal: %w", err)
			}
			if n == 1 {
				if buf[0] == 0x03 {
					return ErrAborted
				}
				t.shorten()
			}
		}
		t.tick(time.Since(start))
	}
	return nil
}

// ttyReady waits up to d for the terminal to become readable.
func ttyReady(fd int, d time.Duration) (bool, error) {
	var fds unix.FdSet
	fds.Set(fd)
	tv := unix.NsecToTimeval(d.Nanoseconds())
	n, err := unix.Select(fd+1, &fds, nil, nil, &tv)
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
