// drv_logger.go records all output, rather than displaying it,
// so tests can make assertions about what a program printed.

package consoleout

import (
	"io"
)

// OutputLoggingDriver holds our state.
type OutputLoggingDriver struct {

	// history stores the characters we've been given.
	history string
}

// GetName returns the name of this driver.
//
// This is part of the ConsoleOutput interface.
func (ol *OutputLoggingDriver) GetName() string {
	return "logger"
}

// PutCharacter saves the specified character into our history,
// nothing is displayed.
//
// This is part of the ConsoleOutput interface.
func (ol *OutputLoggingDriver) PutCharacter(c uint8) {
	ol.history += string(rune(c))
}

// SetWriter is a NOP, as we never write anywhere.
func (ol *OutputLoggingDriver) SetWriter(w io.Writer) {
}

// GetOutput returns our history.
//
// This is part of the ConsoleRecorder interface.
func (ol *OutputLoggingDriver) GetOutput() string {
	return ol.history
}

// Reset removes any stored history.
//
// This is part of the ConsoleRecorder interface.
func (ol *OutputLoggingDriver) Reset() {
	ol.history = ""
}

// init registers our driver, by name.
func init() {
	Register("logger", func() ConsoleOutput {
		return &OutputLoggingDriver{}
	})
}
