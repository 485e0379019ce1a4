// drv_ansi.go passes output through without translation, for hosts
// whose terminal already speaks the guest's language.

package consoleout

import (
	"io"
	"os"
)

// AnsiOutputDriver writes each byte straight to its writer.  There
// is no state to keep; whatever the guest emits, the host terminal
// sees.
type AnsiOutputDriver struct {
	writer io.Writer
}

// GetName returns the name of this driver.
func (ad *AnsiOutputDriver) GetName() string {
	return "ansi"
}

// PutCharacter sends the byte on, unmodified.
func (ad *AnsiOutputDriver) PutCharacter(c uint8) {
	ad.writer.Write([]byte{c})
}

// SetWriter redirects the output, which the tests use to capture it.
func (ad *AnsiOutputDriver) SetWriter(w io.Writer) {
	ad.writer = w
}

// init registers our driver, by name.
func init() {
	Register("ansi", func() ConsoleOutput {
		return &AnsiOutputDriver{
			writer: os.Stdout,
		}
	})
}
