//go:build unix

// drv_stty creates a console input-driver which reads raw bytes
// from STDIN, with select(2) used to poll for pending input.
//
// This is obviously not portable outwith Unix-like systems, but it
// avoids termbox taking over the whole terminal, which makes it the
// driver of choice when driving the emulator from a pipe or an
// expect-style harness.

package consolein

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// STTYInput is an input-driver which keeps STDIN in raw mode for
// the duration of the emulator run, and passes bytes through
// unmodified.
//
// An interactive terminal already sends the bytes our console
// expects for most keystrokes, so no decoding table is needed.
type STTYInput struct {

	// oldState contains the state of the terminal, before
	// switching to RAW mode
	oldState *term.State
}

// Setup switches STDIN into 'raw' mode.
//
// Without this input is laggy and zork doesn't run.
func (si *STTYInput) Setup() error {
	var err error

	si.oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("error making raw terminal %s", err)
	}
	return nil
}

// TearDown resets the state of the terminal.
func (si *STTYInput) TearDown() error {
	if si.oldState != nil {
		err := term.Restore(int(os.Stdin.Fd()), si.oldState)
		if err != nil {
			return fmt.Errorf("error restoring terminal state %s", err)
		}
	}
	return nil
}

// canSelect uses SELECT to test whether STDIN is readable.
func canSelect() bool {

	fds := new(unix.FdSet)
	fds.Set(int(os.Stdin.Fd()))

	// See if input is pending, for a while.
	tv := unix.Timeval{Usec: 200}

	// via select with timeout
	nRead, err := unix.Select(1, fds, nil, nil, &tv)
	if err != nil {
		return false
	}

	return (nRead > 0)
}

// PendingInput returns true if there is pending input from STDIN.
func (si *STTYInput) PendingInput() bool {
	return canSelect()
}

// BlockForCharacter returns the next character from the console,
// blocking until one is available.
func (si *STTYInput) BlockForCharacter() (byte, error) {

	// read only a single byte
	b := make([]byte, 1)
	_, err := os.Stdin.Read(b)
	if err != nil {
		return 0x00, fmt.Errorf("error reading a byte from stdin %s", err)
	}

	return b[0], nil
}

// GetName is part of the module API, and returns the name of this driver.
func (si *STTYInput) GetName() string {
	return "stty"
}

// init registers our driver, by name.
func init() {
	Register("stty", func() ConsoleInput {
		return new(STTYInput)
	})
}
