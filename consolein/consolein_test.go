package consolein

import (
	"testing"

	"github.com/nsf/termbox-go"
)

// fakeInput is a trivial driver used by the tests; it returns a
// fixed sequence of bytes.
type fakeInput struct {
	input []byte
}

func (fi *fakeInput) Setup() error    { return nil }
func (fi *fakeInput) TearDown() error { return nil }
func (fi *fakeInput) PendingInput() bool {
	return len(fi.input) > 0
}
func (fi *fakeInput) BlockForCharacter() (byte, error) {
	c := fi.input[0]
	fi.input = fi.input[1:]
	return c, nil
}
func (fi *fakeInput) GetName() string { return "fake" }

// TestEventToByte exercises the keystroke decoding table.
func TestEventToByte(t *testing.T) {
	tests := []struct {
		name string
		ev   termbox.Event
		b    byte
		ok   bool
	}{
		{"lowercase", termbox.Event{Type: termbox.EventKey, Ch: 'a'}, 'a', true},
		{"uppercase", termbox.Event{Type: termbox.EventKey, Ch: 'Z'}, 'Z', true},
		{"digit", termbox.Event{Type: termbox.EventKey, Ch: '7'}, '7', true},
		{"space", termbox.Event{Type: termbox.EventKey, Key: termbox.KeySpace}, ' ', true},
		{"ctrl-a", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlA}, 0x01, true},
		{"ctrl-z", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlZ}, 0x1A, true},
		{"enter", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyEnter}, 0x0D, true},
		{"tab", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyTab}, 0x09, true},
		{"escape", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyEsc}, 0x1B, true},
		{"backspace", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyBackspace2}, 0x7F, true},
		{"left", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyArrowLeft}, 0x08, true},
		{"right", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyArrowRight}, 0x0C, true},
		{"up", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyArrowUp}, 0x0B, true},
		{"down", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyArrowDown}, 0x0A, true},
		{"home", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyHome}, 0x1E, true},
		{"alt ignored", termbox.Event{Type: termbox.EventKey, Ch: 'a', Mod: termbox.ModAlt}, 0x00, false},
		{"f1 ignored", termbox.Event{Type: termbox.EventKey, Key: termbox.KeyF1}, 0x00, false},
		{"non-ascii ignored", termbox.Event{Type: termbox.EventKey, Ch: 'é'}, 0x00, false},
	}

	for _, tc := range tests {
		b, ok := eventToByte(tc.ev)
		if ok != tc.ok || b != tc.b {
			t.Errorf("%s: got 0x%02X/%v, want 0x%02X/%v",
				tc.name, b, ok, tc.b, tc.ok)
		}
	}
}

// TestRegistry confirms drivers can be found by name, and that
// bogus names are rejected.
func TestRegistry(t *testing.T) {
	Register("fake", func() ConsoleInput {
		return &fakeInput{}
	})

	ci, err := New("FAKE")
	if err != nil {
		t.Fatalf("failed to find registered driver: %s", err)
	}
	if ci.GetName() != "fake" {
		t.Fatalf("wrong driver name %s", ci.GetName())
	}

	_, err = New("no-such-driver")
	if err == nil {
		t.Fatalf("expected an error looking up a bogus driver")
	}

	found := false
	for _, nm := range ci.GetDrivers() {
		if nm == "fake" {
			found = true
		}
	}
	if !found {
		t.Fatalf("registered driver missing from the driver list")
	}
}

// TestStuffedInput ensures stuffed input is seen by the status
// poll, and consumed before the driver is consulted.
func TestStuffedInput(t *testing.T) {
	ci := &ConsoleIn{driver: &fakeInput{}}

	if ci.Status() {
		t.Fatalf("status should be false with no input")
	}

	ci.StuffInput("hi")
	if !ci.Status() {
		t.Fatalf("status should be true with stuffed input")
	}

	c, err := ci.BlockForCharacter()
	if err != nil || c != 'h' {
		t.Fatalf("failed to read stuffed input: %c %s", c, err)
	}
	c, _ = ci.BlockForCharacter()
	if c != 'i' {
		t.Fatalf("failed to read stuffed input: %c", c)
	}
	if ci.Status() {
		t.Fatalf("status should be false once input is drained")
	}
}

// TestReadLine exercises line-reading, including the backspace
// handling and the Ctrl-C abort.
func TestReadLine(t *testing.T) {
	ci := &ConsoleIn{driver: &fakeInput{}}

	echoed := ""
	echo := func(c byte) { echoed += string(rune(c)) }

	// "hellp" with the trailing character corrected.
	ci.StuffInput("hellp\x7Fo\r")
	out, err := ci.ReadLine(20, echo)
	if err != nil {
		t.Fatalf("readline failed: %s", err)
	}
	if out != "hello" {
		t.Fatalf("readline got %q, want hello", out)
	}
	if echoed != "hellp\x08 \x08o" {
		t.Fatalf("echo stream wrong: %q", echoed)
	}

	// Input beyond the maximum length is dropped.
	ci.StuffInput("abcdef\r")
	out, err = ci.ReadLine(3, func(c byte) {})
	if err != nil || out != "abc" {
		t.Fatalf("maximum length ignored: %q %s", out, err)
	}

	// Ctrl-C aborts the read.
	ci.StuffInput("ab\x03")
	out, err = ci.ReadLine(20, func(c byte) {})
	if err != ErrInterrupted {
		t.Fatalf("expected ErrInterrupted, got %s", err)
	}
	if out != "ab" {
		t.Fatalf("interrupted read lost its prefix: %q", out)
	}
}
