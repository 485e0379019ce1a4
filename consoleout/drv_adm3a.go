// drv_adm3a.go translates the control and escape sequences of the
// Lear Siegler ADM-3A terminal, which CP/M software almost always
// assumes, into the ANSI sequences a modern terminal understands.
//
// This is the default output driver.

package consoleout

import (
	"fmt"
	"io"
	"os"
)

// The states of our little translation state-machine.
const (
	// stText is the normal state, most characters pass straight through.
	stText = iota

	// stEsc means we've seen an escape character.
	stEsc

	// stRow and stCol collect the two bytes of a cursor-address
	// sequence.
	stRow
	stCol

	// stAttrOn and stAttrOff collect the byte naming which
	// attribute to enable, or disable.
	stAttrOn
	stAttrOff
)

// Adm3AOutputDriver holds our state.
type Adm3AOutputDriver struct {

	// state records where we are in the translation state-machine.
	state int

	// skip counts bytes belonging to a sequence we don't translate,
	// which must be swallowed rather than displayed.
	skip int

	// row and col hold a pending cursor address.
	row uint8
	col uint8

	// writer is where we send our output
	writer io.Writer
}

// GetName returns the name of this driver.
//
// This is part of the ConsoleOutput interface.
func (a3a *Adm3AOutputDriver) GetName() string {
	return "adm-3a"
}

// PutCharacter writes the character to the console, translating
// terminal sequences as they stream past.
//
// This is part of the ConsoleOutput interface.
func (a3a *Adm3AOutputDriver) PutCharacter(c uint8) {

	if a3a.skip > 0 {
		a3a.skip--
		return
	}

	switch a3a.state {
	case stText:
		a3a.text(c)

	case stEsc:
		a3a.escape(c)

	case stRow:
		a3a.row = c - ' ' + 1
		a3a.state = stCol

	case stCol:
		a3a.col = c - ' ' + 1
		a3a.state = stText
		fmt.Fprintf(a3a.writer, "\033[%d;%dH", a3a.row, a3a.col)

	case stAttrOn:
		a3a.state = stText
		a3a.attribute(c, true)

	case stAttrOff:
		a3a.state = stText
		a3a.attribute(c, false)
	}
}

// text handles a character arriving in the normal state.
func (a3a *Adm3AOutputDriver) text(c uint8) {
	switch c {
	case 0x07: /* BEL: flash screen */
		fmt.Fprintf(a3a.writer, "\033[?5h\033[?5l")
	case 0x7F: /* DEL: echo BS, space, BS */
		fmt.Fprintf(a3a.writer, "\b \b")
	case 0x1A, 0x0C: /* clear screen; adm3a and vt52 forms */
		fmt.Fprintf(a3a.writer, "\033[H\033[2J")
	case 0x1E: /* cursor home */
		fmt.Fprintf(a3a.writer, "\033[H")
	case 0x1B:
		a3a.state = stEsc
	case 0x01: /* cursor motion prefix */
		a3a.state = stRow
	case 0x02: /* insert line */
		fmt.Fprintf(a3a.writer, "\033[L")
	case 0x03: /* delete line */
		fmt.Fprintf(a3a.writer, "\033[M")
	case 0x18, 0x05: /* clear to eol */
		fmt.Fprintf(a3a.writer, "\033[K")
	case 0x12, 0x13:
		// nop
	default:
		fmt.Fprintf(a3a.writer, "%c", c)
	}
}

// escape handles the character following an escape.
func (a3a *Adm3AOutputDriver) escape(c uint8) {
	a3a.state = stText

	switch c {
	case 0x1B:
		fmt.Fprintf(a3a.writer, "%c", c)
	case '=', 'Y': /* cursor motion */
		a3a.state = stRow
	case 'E': /* insert line */
		fmt.Fprintf(a3a.writer, "\033[L")
	case 'R': /* delete line */
		fmt.Fprintf(a3a.writer, "\033[M")
	case 'B': /* enable attribute */
		a3a.state = stAttrOn
	case 'C': /* disable attribute */
		a3a.state = stAttrOff
	case 'L', 'D': /* set line / delete line - swallow coordinates */
		a3a.skip = 4
	case '*', ' ': /* set pixel / clear pixel - swallow coordinates */
		a3a.skip = 2
	default: /* some true ANSI sequence? */
		fmt.Fprintf(a3a.writer, "%c%c", 0x1B, c)
	}
}

// attribute handles the argument of an attribute enable/disable
// sequence.
func (a3a *Adm3AOutputDriver) attribute(c uint8, enable bool) {

	if enable {
		switch c {
		case '0': /* start reverse video */
			fmt.Fprintf(a3a.writer, "\033[7m")
		case '1': /* start half intensity */
			fmt.Fprintf(a3a.writer, "\033[1m")
		case '2': /* start blinking */
			fmt.Fprintf(a3a.writer, "\033[5m")
		case '3': /* start underlining */
			fmt.Fprintf(a3a.writer, "\033[4m")
		case '4': /* cursor on */
			fmt.Fprintf(a3a.writer, "\033[?25h")
		case '6': /* remember cursor position */
			fmt.Fprintf(a3a.writer, "\033[s")
		case '5', '7': /* video mode on / preserve status line */
			// nop
		default:
			fmt.Fprintf(a3a.writer, "%cB%c", 0x1B, c)
		}
		return
	}

	switch c {
	case '0': /* stop reverse video */
		fmt.Fprintf(a3a.writer, "\033[27m")
	case '1': /* stop half intensity */
		fmt.Fprintf(a3a.writer, "\033[m")
	case '2': /* stop blinking */
		fmt.Fprintf(a3a.writer, "\033[25m")
	case '3': /* stop underlining */
		fmt.Fprintf(a3a.writer, "\033[24m")
	case '4': /* cursor off */
		fmt.Fprintf(a3a.writer, "\033[?25l")
	case '6': /* restore cursor position */
		fmt.Fprintf(a3a.writer, "\033[u")
	case '5', '7': /* video mode off / don't preserve status line */
		// nop
	default:
		fmt.Fprintf(a3a.writer, "%cC%c", 0x1B, c)
	}
}

// SetWriter will update the writer.
func (a3a *Adm3AOutputDriver) SetWriter(w io.Writer) {
	a3a.writer = w
}

// init registers our driver, by name.
func init() {
	Register("adm-3a", func() ConsoleOutput {
		return &Adm3AOutputDriver{
			writer: os.Stdout,
		}
	})
}
