package paste

import (
	"errors"
	"testing"

	"xtype/keymap"
)

type fakeBackend struct {
	calls   []string
	seq     []keymap.Action
	seqErr  error
	syncErr error
	injErr  error
}

func (f *fakeBackend) Sequence(text string) ([]keymap.Action, error) {
	f.calls = append(f.calls, "sequence")
	return f.seq, f.seqErr
}

func (f *fakeBackend) Synchronize() error {
	f.calls = append(f.calls, "synchronize")
	return f.syncErr
}

func (f *fakeBackend) Inject(actions []keymap.Action) error {
	f.calls = append(f.calls, "inject")
	return f.injErr
}

func (f *fakeBackend) Release() {
	f.calls = append(f.calls, "release")
}

func wantCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls %v, want %v", got, want)
		}
	}
}

func TestRunOrder(t *testing.T) {
	b := &fakeBackend{seq: []keymap.Action{{Code: 30, Press: true}}}
	if err := Run(b, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantCalls(t, b.calls, []string{"sequence", "synchronize", "inject", "release"})
}

// Mapping errors must surface before the operator is made to wait.
func TestRunMappingErrorSkipsSynchronize(t *testing.T) {
	b := &fakeBackend{seqErr: &keymap.UnmappedError{Chars: []rune{'€'}}}
	err := Run(b, "€")
	var unmapped *keymap.UnmappedError
	if !errors.As(err, &unmapped) {
		t.Fatalf("expected UnmappedError, got %v", err)
	}
	wantCalls(t, b.calls, []string{"sequence", "release"})
}

// A synchronization failure (operator abort included) must not inject
// anything, but the backend is still released.
func TestRunSyncErrorSkipsInject(t *testing.T) {
	abort := errors.New("aborted")
	b := &fakeBackend{
		seq:     []keymap.Action{{Code: 30, Press: true}},
		syncErr: abort,
	}
	if err := Run(b, "a"); !errors.Is(err, abort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	wantCalls(t, b.calls, []string{"sequence", "synchronize", "release"})
}

func TestRunEmptySequenceSkipsDelivery(t *testing.T) {
	b := &fakeBackend{}
	if err := Run(b, "\r"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantCalls(t, b.calls, []string{"sequence", "release"})
}

func TestRunInjectErrorPropagates(t *testing.T) {
	ioErr := errors.New("write failed")
	b := &fakeBackend{
		seq:    []keymap.Action{{Code: 30, Press: true}},
		injErr: ioErr,
	}
	if err := Run(b, "a"); !errors.Is(err, ioErr) {
		t.Fatalf("expected write error, got %v", err)
	}
	wantCalls(t, b.calls, []string{"sequence", "synchronize", "inject", "release"})
}
