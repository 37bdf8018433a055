package countdown

import (
	"testing"
	"time"
)

func TestShortenKeepsFloor(t *testing.T) {
	tm := timer{remaining: Default}
	for i := 0; i < 50; i++ {
		tm.shorten()
		if tm.remaining < floor {
			t.Fatalf("remaining dropped to %v after %d keystrokes", tm.remaining, i+1)
		}
	}
	if tm.remaining != floor {
		t.Fatalf("expected clock pinned at %v, got %v", floor, tm.remaining)
	}
}

func TestShortenSteps(t *testing.T) {
	tm := timer{remaining: 20 * time.Second}
	tm.shorten()
	if tm.remaining != 17*time.Second {
		t.Fatalf("got %v, want 17s", tm.remaining)
	}
	tm.shorten()
	if tm.remaining != 14*time.Second {
		t.Fatalf("got %v, want 14s", tm.remaining)
	}
}

func TestShortenClampsToFloor(t *testing.T) {
	tm := timer{remaining: 5 * time.Second}
	tm.shorten()
	if tm.remaining != floor {
		t.Fatalf("got %v, want %v", tm.remaining, floor)
	}
}

// A clock that ticked below the floor on its own must not be extended by a
// keystroke.
func TestShortenNeverExtends(t *testing.T) {
	tm := timer{remaining: 2 * time.Second}
	tm.shorten()
	if tm.remaining != 2*time.Second {
		t.Fatalf("got %v, want 2s unchanged", tm.remaining)
	}
}

// A held key delivers auto-repeat events roughly every 33 ms. Each iteration
// still consumes its wall-clock time, so the clock keeps draining and the
// countdown terminates instead of pinning at the floor.
func TestAutoRepeatStillElapses(t *testing.T) {
	const repeat = 33 * time.Millisecond
	tm := timer{remaining: Default}
	for i := 0; i < 1000 && !tm.done(); i++ {
		before := tm.remaining
		tm.shorten()
		tm.tick(repeat)
		if tm.remaining >= before {
			t.Fatalf("clock stalled at %v after %d repeats", tm.remaining, i+1)
		}
	}
	if !tm.done() {
		t.Fatal("countdown never ran out under key auto-repeat")
	}
}

func TestTickRunsOut(t *testing.T) {
	tm := timer{remaining: time.Second}
	for i := 0; i < 9; i++ {
		tm.tick(tick)
		if tm.done() {
			t.Fatalf("done after only %d ticks", i+1)
		}
	}
	tm.tick(tick)
	if !tm.done() {
		t.Fatal("not done after the full second elapsed")
	}
}

func TestDisplaySecondsRoundUp(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      int
	}{
		{20 * time.Second, 20},
		{19*time.Second + 900*time.Millisecond, 20},
		{100 * time.Millisecond, 1},
		{0, 0},
	}
	for _, c := range cases {
		tm := timer{remaining: c.remaining}
		if got := tm.seconds(); got != c.want {
			t.Fatalf("%v: got %d, want %d", c.remaining, got, c.want)
		}
	}
}
