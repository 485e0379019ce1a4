package cpm

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cpm80/cpmemu/ccp"
	"github.com/cpm80/cpmemu/consolein"
	"github.com/cpm80/cpmemu/consoleout"
)

// newTestCPM returns an emulator with a recording console and a
// discarding logger.
func newTestCPM(t *testing.T) *CPM {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	input, err := consolein.New("stty")
	if err != nil {
		t.Fatalf("failed to create console input: %s", err)
	}
	output, err := consoleout.New("logger")
	if err != nil {
		t.Fatalf("failed to create console output: %s", err)
	}

	return New(logger, input, output)
}

// output returns everything the guest has printed so far.
func output(t *testing.T, cpm *CPM) string {
	rec, ok := cpm.output.GetDriver().(consoleout.ConsoleRecorder)
	if !ok {
		t.Fatalf("output driver is not a recorder")
	}
	return rec.GetOutput()
}

// loadProgram writes the given machine-code to a file and loads it.
func loadProgram(t *testing.T, cpm *CPM, code []byte, args []string) {
	path := filepath.Join(t.TempDir(), "test.com")

	if err := os.WriteFile(path, code, 0o644); err != nil {
		t.Fatalf("failed to write program: %s", err)
	}
	if err := cpm.LoadBinary(path, args); err != nil {
		t.Fatalf("failed to load program: %s", err)
	}
}

// TestLowMemory checks the vectors and scratch areas a freshly
// loaded program finds beneath the TPA.
func TestLowMemory(t *testing.T) {
	obj := newTestCPM(t)
	loadProgram(t, obj, []byte{0xC9}, []string{"abc*.*", "other.txt"})

	m := obj.Memory

	// JP <warm-boot> at zero.
	if m.Get(0x0000) != 0xC3 || m.GetU16(0x0001) != BiosBase+3 {
		t.Fatalf("warm-boot vector is wrong")
	}

	// JP <bdos> at five.
	if m.Get(0x0005) != 0xC3 || m.GetU16(0x0006) != BdosEntry {
		t.Fatalf("bdos vector is wrong")
	}

	// The loaded code.
	if m.Get(TPAStart) != 0xC9 {
		t.Fatalf("program not loaded at the TPA")
	}

	// FCB1 holds the expanded wildcard.
	if got := string(m.GetRange(DefaultFCB1+1, 11)); got != "ABC?????"+"???" {
		t.Fatalf("FCB1 wrong: %q", got)
	}

	// FCB2 holds the second argument.
	if got := string(m.GetRange(DefaultFCB2+1, 11)); got != "OTHER   "+"TXT" {
		t.Fatalf("FCB2 wrong: %q", got)
	}

	// Parameter buffer: count byte, then the upper-cased tail.
	tail := " ABC*.* OTHER.TXT"
	if int(m.Get(DefaultDMA)) != len(tail) {
		t.Fatalf("parameter count wrong: %d", m.Get(DefaultDMA))
	}
	if got := string(m.GetRange(DefaultDMA+1, len(tail))); got != tail {
		t.Fatalf("parameter buffer wrong: %q", got)
	}
}

// TestNoArguments ensures the FCBs and parameter buffer stay blank
// without arguments.
func TestNoArguments(t *testing.T) {
	obj := newTestCPM(t)
	loadProgram(t, obj, []byte{0xC9}, nil)

	m := obj.Memory
	if m.Get(DefaultDMA) != 0 {
		t.Fatalf("parameter buffer should be empty")
	}
	if got := string(m.GetRange(DefaultFCB1+1, 11)); got != "           " {
		t.Fatalf("FCB1 should be blank: %q", got)
	}
}

// TestExit runs a program which calls the exit function.
func TestExit(t *testing.T) {
	obj := newTestCPM(t)

	// LD C,0x00; CALL 0x0005
	loadProgram(t, obj, []byte{0x0E, 0x00, 0xCD, 0x05, 0x00}, nil)

	err := obj.Execute()
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected clean exit, got %s", err)
	}
}

// TestReturnExits runs a program which simply returns; the sentinel
// return-address routes it through the warm-boot vector.
func TestReturnExits(t *testing.T) {
	obj := newTestCPM(t)
	loadProgram(t, obj, []byte{0xC9}, nil)

	err := obj.Execute()
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected clean exit, got %s", err)
	}
}

// TestHalt runs a program which halts the CPU.
func TestHalt(t *testing.T) {
	obj := newTestCPM(t)
	loadProgram(t, obj, []byte{0x76}, nil)

	err := obj.Execute()
	if !errors.Is(err, ErrHalt) {
		t.Fatalf("expected a halt, got %s", err)
	}
}

// TestRunaway runs a program which jumps just beneath the BDOS
// entry-point, which is where runaway execution ends up.
func TestRunaway(t *testing.T) {
	obj := newTestCPM(t)

	// JP BdosEntry - 1
	loadProgram(t, obj, []byte{0xC3, 0xFF, 0xE5}, nil)

	err := obj.Execute()
	if !errors.Is(err, ErrRunaway) {
		t.Fatalf("expected the runaway guard, got %s", err)
	}
}

// TestWriteString runs a program which prints via the BDOS, then
// exits.
func TestWriteString(t *testing.T) {
	obj := newTestCPM(t)

	code := []byte{
		0x0E, 0x09, // LD C, 0x09
		0x11, 0x0D, 0x01, // LD DE, 0x010D
		0xCD, 0x05, 0x00, // CALL 0x0005
		0x0E, 0x00, // LD C, 0x00
		0xCD, 0x05, 0x00, // CALL 0x0005
		'H', 'e', 'l', 'l', 'o', '$',
	}
	loadProgram(t, obj, code, nil)

	err := obj.Execute()
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected clean exit, got %s", err)
	}
	if got := output(t, obj); got != "Hello" {
		t.Fatalf("program printed %q", got)
	}
}

// TestBiosConsole runs a program which writes a character via the
// BIOS vector table, then warm-boots.
func TestBiosConsole(t *testing.T) {
	obj := newTestCPM(t)

	code := []byte{
		0x0E, 'X', // LD C, 'X'
		0xCD, 0x0C, 0xFF, // CALL CONOUT (BiosBase + 4*3)
		0xC3, 0x00, 0x00, // JP 0x0000
	}
	loadProgram(t, obj, code, nil)

	err := obj.Execute()
	if !errors.Is(err, ErrExit) {
		t.Fatalf("expected clean exit, got %s", err)
	}
	if got := output(t, obj); got != "X" {
		t.Fatalf("program printed %q", got)
	}
}

// TestLoadCCP loads the bundled command processor and confirms the
// image lands, byte for byte, at its base address.
func TestLoadCCP(t *testing.T) {
	obj := newTestCPM(t)

	if err := obj.LoadCCP(); err != nil {
		t.Fatalf("failed to load the command processor: %s", err)
	}

	want, err := ccp.Bytes()
	if err != nil {
		t.Fatalf("failed to assemble the command processor: %s", err)
	}
	got := obj.Memory.GetRange(ccp.Base, len(want))
	if !bytes.Equal(got, want) {
		t.Fatalf("command processor image differs in memory")
	}
	if obj.start != ccp.Base {
		t.Fatalf("start address is %04X", obj.start)
	}
}

// TestUnknownSyscall aborts the run with a wrapped error.
func TestUnknownSyscall(t *testing.T) {
	obj := newTestCPM(t)

	// LD C,0xFE; CALL 0x0005
	loadProgram(t, obj, []byte{0x0E, 0xFE, 0xCD, 0x05, 0x00}, nil)

	err := obj.Execute()
	if !errors.Is(err, ErrUnimplemented) {
		t.Fatalf("expected an unimplemented error, got %s", err)
	}
}

// TestOversizedBinary confirms a too-large image is truncated, and
// still runs.
func TestOversizedBinary(t *testing.T) {
	obj := newTestCPM(t)

	big := make([]byte, 70000)
	big[0] = 0xC9
	for i := 1; i < len(big); i++ {
		big[i] = 0x00
	}
	loadProgram(t, obj, big, nil)

	// prepareLowMemory runs after loading, so the vectors survive.
	if obj.Memory.Get(0x0000) != 0xC3 {
		t.Fatalf("low memory vectors missing")
	}
}
