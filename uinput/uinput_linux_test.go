package uinput

import (
	"bytes"
	"encoding/binary"
	"testing"

	"xtype/keymap"
)

func decodeEvents(t *testing.T, data []byte) []inputEvent {
	t.Helper()
	r := bytes.NewReader(data)
	var events []inputEvent
	for r.Len() > 0 {
		var ev inputEvent
		if err := binary.Read(r, binary.LittleEndian, &ev); err != nil {
			t.Fatalf("decoding event stream: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func TestWriteActionEmitsKeyThenReport(t *testing.T) {
	var buf bytes.Buffer
	if err := writeAction(&buf, keymap.Action{Code: 30, Press: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := decodeEvents(t, buf.Bytes())
	if len(events) != 2 {
		t.Fatalf("got %d records, want 2", len(events))
	}
	if events[0].Type != evKey || events[0].Code != 30 || events[0].Value != 1 {
		t.Fatalf("wrong key record: %+v", events[0])
	}
	if events[1].Type != evSyn || events[1].Code != synReport || events[1].Value != 0 {
		t.Fatalf("wrong sync record: %+v", events[1])
	}
}

func TestInjectStreamOrder(t *testing.T) {
	var buf bytes.Buffer
	b := &Backend{out: &buf}
	actions := []keymap.Action{
		{Code: 30, Press: true},
		{Code: 30, Press: false},
	}
	if err := b.Inject(actions); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := decodeEvents(t, buf.Bytes())
	if len(events) != 4 {
		t.Fatalf("got %d records, want 4", len(events))
	}
	wantValues := []int32{1, 0}
	for i, want := range wantValues {
		key, syn := events[2*i], events[2*i+1]
		if key.Type != evKey || key.Code != 30 || key.Value != want {
			t.Fatalf("record %d: wrong key event %+v", 2*i, key)
		}
		if syn.Type != evSyn {
			t.Fatalf("record %d: expected sync report, got %+v", 2*i+1, syn)
		}
	}
}

func TestDeviceNameFitsSetupRecord(t *testing.T) {
	var dev uinputUserDev
	name := "xtype virtual keyboard"
	if len(name) >= len(dev.Name) {
		t.Fatalf("device name %q does not fit the %d-byte field", name, len(dev.Name))
	}
}
