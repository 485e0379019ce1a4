// drv_null.go discards all output; useful for tests which care
// only about side-effects.

package consoleout

import (
	"io"
)

// NullOutputDriver holds our state.
type NullOutputDriver struct {
}

// GetName returns the name of this driver.
//
// This is part of the ConsoleOutput interface.
func (no *NullOutputDriver) GetName() string {
	return "null"
}

// PutCharacter discards the specified character.
//
// This is part of the ConsoleOutput interface.
func (no *NullOutputDriver) PutCharacter(c uint8) {
}

// SetWriter is a NOP, as we have no writer.
func (no *NullOutputDriver) SetWriter(w io.Writer) {
}

// init registers our driver, by name.
func init() {
	Register("null", func() ConsoleOutput {
		return &NullOutputDriver{}
	})
}
