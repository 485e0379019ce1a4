// Package consolein handles the reading of console input
// for our emulator.
//
// The package supports the minimum required functionality
// we need - which boils down to polling for pending input,
// reading a single character, and reading a line of text.
//
// Note that no output functions are handled by this package,
// it is exclusively used for input.
package consolein

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInterrupted is returned when a line-read is aborted by Ctrl-C.
var ErrInterrupted = errors.New("interrupted")

// ConsoleInput is the interface that must be implemented by anything
// that wishes to be used as an input driver.
//
// Providing this interface is implemented an object may register itself,
// by name, via the Register method.
type ConsoleInput interface {

	// Setup performs any one-time initialization, such as putting
	// the terminal into raw mode.
	Setup() error

	// TearDown undoes whatever Setup did.
	TearDown() error

	// PendingInput returns true if there is input waiting to be read.
	//
	// This must not consume the waiting character, and must ignore
	// any keystroke which does not map to a console byte.
	PendingInput() bool

	// BlockForCharacter waits for a character to be entered, and
	// returns it.  Nothing is echoed.
	BlockForCharacter() (byte, error)

	// GetName will return the name of the driver.
	GetName() string
}

// This is a map of known-drivers
var handlers = struct {
	m map[string]Constructor
}{m: make(map[string]Constructor)}

// Constructor is the signature of a constructor-function
// which is used to instantiate an instance of a driver.
type Constructor func() ConsoleInput

// Register makes a console driver available, by name.
//
// When one needs to be created the constructor can be called
// to create an instance of it.
func Register(name string, obj Constructor) {
	// Downcase for consistency.
	name = strings.ToLower(name)

	handlers.m[name] = obj
}

// ConsoleIn holds our state, which is a pointer to the object
// handling the actual reading, plus any input which has been
// "stuffed" into the buffer for testing purposes.
type ConsoleIn struct {

	// driver is the thing that actually reads our input.
	driver ConsoleInput

	// stuffed holds fake input which is consumed before the
	// driver is consulted.
	stuffed string
}

// New is our constructor, it creates an input device which uses
// the specified driver.
func New(name string) (*ConsoleIn, error) {
	// Downcase for consistency.
	name = strings.ToLower(name)

	// Do we have a constructor with the given name?
	ctor, ok := handlers.m[name]
	if !ok {
		return nil, fmt.Errorf("failed to lookup driver by name '%s'", name)
	}

	// OK we do, return ourselves with that driver.
	return &ConsoleIn{
		driver: ctor(),
	}, nil
}

// GetDriver allows getting our driver at runtime.
func (ci *ConsoleIn) GetDriver() ConsoleInput {
	return ci.driver
}

// GetDrivers returns all available driver-names.
func (ci *ConsoleIn) GetDrivers() []string {
	valid := []string{}

	for x := range handlers.m {
		valid = append(valid, x)
	}
	return valid
}

// GetName returns the name of our selected driver.
func (ci *ConsoleIn) GetName() string {
	return ci.driver.GetName()
}

// Setup proxies into our registered driver.
func (ci *ConsoleIn) Setup() error {
	return ci.driver.Setup()
}

// TearDown proxies into our registered driver.
func (ci *ConsoleIn) TearDown() error {
	return ci.driver.TearDown()
}

// StuffInput inserts fake values into our input-buffer, which is
// used by the unit-tests and when running a submitted command.
func (ci *ConsoleIn) StuffInput(input string) {
	ci.stuffed = input
}

// Status returns true if there is pending input which a read
// would return without blocking.
func (ci *ConsoleIn) Status() bool {
	if len(ci.stuffed) > 0 {
		return true
	}
	return ci.driver.PendingInput()
}

// BlockForCharacter returns the next character from the console,
// blocking until one is available.  Nothing is echoed.
func (ci *ConsoleIn) BlockForCharacter() (byte, error) {
	if len(ci.stuffed) > 0 {
		c := ci.stuffed[0]
		ci.stuffed = ci.stuffed[1:]
		return c, nil
	}
	return ci.driver.BlockForCharacter()
}

// ReadLine reads a line of input from the console, of up to max
// characters.  Basic line-editing is supported; backspace deletes
// the most recent character.
//
// Echoing is our responsibility, since the driver never echoes, so
// each change is reported via the supplied callback - one byte at a
// time.  The returned line does not include the terminating newline.
//
// If the line is aborted with Ctrl-C we return what was entered
// along with ErrInterrupted.
func (ci *ConsoleIn) ReadLine(max uint8, echo func(byte)) (string, error) {

	text := ""

	for {
		c, err := ci.BlockForCharacter()
		if err != nil {
			return text, err
		}

		switch c {
		case 0x0D, 0x0A:
			// Return / newline terminates the read.
			return text, nil

		case 0x03:
			return text, ErrInterrupted

		case 0x08, 0x7F:
			// Backspace / delete removes the last character,
			// and erases it from the screen.
			if len(text) > 0 {
				text = text[:len(text)-1]
				echo(0x08)
				echo(' ')
				echo(0x08)
			}

		default:
			if len(text) < int(max) {
				text += string(rune(c))
				echo(c)
			}
		}
	}
}
