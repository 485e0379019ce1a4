// drv_term.go uses the Termbox library to handle console-based input.
//
// A goroutine is launched which collects keyboard events, decodes
// them into single console bytes, and queues those bytes into a
// channel where they can be peeled off on-demand.
//
// The portability of this solution is unknown, however this driver
// _seems_ reasonable and is the default.

package consolein

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nsf/termbox-go"
	"golang.org/x/term"
)

// TermboxInput is our input-driver, using termbox
type TermboxInput struct {

	// oldState contains the state of the terminal, before switching to RAW mode
	oldState *term.State

	// cancel holds a context which can be used to close our polling goroutine
	cancel context.CancelFunc

	// events holds the decoded bytes read "in the background", via termbox
	events chan byte
}

// Setup ensures that the termbox init functions are called, and our
// terminal is set into RAW mode.
func (ti *TermboxInput) Setup() error {

	var err error

	// switch STDIN into 'raw' mode - we must do this before
	// we setup termbox.
	ti.oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("error making raw terminal %s", err)
	}

	// Setup the terminal.
	err = termbox.Init()
	if err != nil {
		return fmt.Errorf("error initializing termbox %s", err)
	}

	// This is "Show Cursor" which termbox hides by default.
	//
	// Sigh.
	fmt.Printf("\x1b[?25h")

	ti.events = make(chan byte, 64)

	// Allow our polling of the keyboard to be canceled
	ctx, cancel := context.WithCancel(context.Background())
	ti.cancel = cancel

	// Start polling for keyboard input "in the background".
	go ti.pollKeyboard(ctx)

	return nil
}

// pollKeyboard runs in a goroutine and collects keyboard input
// into a channel where it will be read from in the future.
//
// Events which don't decode to a console byte are dropped here,
// which means polling for pending input never reports a keystroke
// that a later read would have to ignore.
func (ti *TermboxInput) pollKeyboard(ctx context.Context) {
	for {
		// Are we done?
		select {
		case <-ctx.Done():
			return
		default:
			// NOP
		}

		// Now look for keyboard input
		ev := termbox.PollEvent()
		if ev.Type != termbox.EventKey {
			continue
		}

		b, ok := eventToByte(ev)
		if !ok {
			continue
		}

		select {
		case ti.events <- b:
		case <-ctx.Done():
			return
		}
	}
}

// eventToByte maps a termbox key-event to the single byte a real
// serial console would have sent for that keystroke.
//
// Keystrokes which have no sane single-byte representation, such
// as Alt-modified keys and function-keys, are ignored.
func eventToByte(ev termbox.Event) (byte, bool) {

	// Alt-anything has no console representation.
	if ev.Mod&termbox.ModAlt != 0 {
		return 0x00, false
	}

	// Special keys first; these arrive with Ch unset.
	switch ev.Key {
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		return 0x7F, true
	case termbox.KeyEnter:
		return 0x0D, true
	case termbox.KeyArrowLeft:
		return 0x08, true
	case termbox.KeyArrowRight:
		return 0x0C, true
	case termbox.KeyArrowUp:
		return 0x0B, true
	case termbox.KeyArrowDown:
		return 0x0A, true
	case termbox.KeyHome:
		return 0x1E, true
	case termbox.KeyTab:
		return 0x09, true
	case termbox.KeyEsc:
		return 0x1B, true
	case termbox.KeySpace:
		return ' ', true
	}

	// Printable characters, shifted or not.
	if ev.Ch != 0 {
		if ev.Ch >= ' ' && ev.Ch <= '~' {
			return byte(ev.Ch), true
		}
		return 0x00, false
	}

	// Control-modified keys arrive as bare key-codes in the
	// 0x01..0x1F range, which are already the bytes we want.
	if ev.Key >= 0x01 && ev.Key <= 0x1F {
		return byte(ev.Key), true
	}

	return 0x00, false
}

// TearDown resets the state of the terminal, disables the background
// polling of characters and generally gets us ready for exit.
func (ti *TermboxInput) TearDown() error {
	// Cancel the keyboard reading
	if ti.cancel != nil {
		ti.cancel()
	}

	// Terminate the GUI.
	termbox.Close()

	// Restore the terminal
	if ti.oldState != nil {
		err := term.Restore(int(os.Stdin.Fd()), ti.oldState)
		if err != nil {
			return fmt.Errorf("error restoring terminal state %s", err)
		}
	}
	return nil
}

// PendingInput returns true if there is pending input from the console.
func (ti *TermboxInput) PendingInput() bool {

	if len(ti.events) > 0 {
		return true
	}

	// Busy-polling guests spin on this call; give the pump
	// a moment before reporting nothing is ready.
	time.Sleep(time.Millisecond)

	return len(ti.events) > 0
}

// BlockForCharacter returns the next character from the console,
// blocking until one is available.
func (ti *TermboxInput) BlockForCharacter() (byte, error) {
	return <-ti.events, nil
}

// GetName is part of the module API, and returns the name of this driver.
func (ti *TermboxInput) GetName() string {
	return "term"
}

// init registers our driver, by name.
func init() {
	Register("term", func() ConsoleInput {
		return new(TermboxInput)
	})
}
