// Package cpm is the main package for our emulator, it wires the CPU,
// memory, and console drivers together, and implements the BDOS and
// BIOS services which CP/M programs expect.
//
// No operating system code runs inside the guest; instead execution is
// watched, and when control reaches one of the well-known entry-points
// the corresponding service is performed on the host and a RET is
// simulated.
package cpm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cpm80/cpmemu/ccp"
	"github.com/cpm80/cpmemu/consolein"
	"github.com/cpm80/cpmemu/consoleout"
	"github.com/cpm80/cpmemu/fcb"
	"github.com/cpm80/cpmemu/memory"
	"github.com/cpm80/cpmemu/z80"
)

var (
	// ErrExit will be used to handle a CP/M binary exiting, whether
	// via the BDOS call or a jump through the warm-boot vector.
	//
	// It should be handled and expected by callers.
	ErrExit = errors.New("EXIT")

	// ErrHalt will be used to note that the CPU executed a HALT
	// instruction, which no sane program does.
	//
	// It should be handled and expected by callers.
	ErrHalt = errors.New("HALT")

	// ErrRunaway will be used to note that execution ran off the
	// end of the transient program area and into our reserved
	// memory.
	//
	// It should be handled and expected by callers.
	ErrRunaway = errors.New("RUNAWAY")

	// ErrUnimplemented will be used to handle a CP/M binary calling
	// an unimplemented syscall.
	//
	// It should be handled and expected by callers.
	ErrUnimplemented = errors.New("UNIMPLEMENTED")
)

// HandlerType contains the signature of a BDOS or BIOS function.
//
// It is not expected that outside packages will want to add custom
// functions, but this is public so that it could be done if it was
// necessary.
type HandlerType func(cpm *CPM) error

// Handler contains details of a specific call we implement.
//
// While we mostly need a "number to handler" mapping, having a name
// is useful for the logs we produce.
type Handler struct {
	// Desc contains the human-readable name of the given call.
	Desc string

	// Handler contains the function which should be invoked.
	Handler HandlerType
}

// FileCache is used to cache filehandles, against FCB addresses.
//
// This is primarily done as a speed optimization, but it also means
// sequential operations against the same FCB share one seek-position.
type FileCache struct {
	// name holds the name of the file, when it was opened.
	name string

	// handle has the file object.
	handle *os.File
}

// CPM is the object that holds our emulator state.
type CPM struct {

	// Syscalls contains the BDOS functions we know how to emulate,
	// indexed by their ID.
	Syscalls map[uint8]Handler

	// BIOSCalls contains the BIOS functions, indexed by the offset
	// of their vector in the jump-table.
	BIOSCalls map[uint8]Handler

	// Memory contains the memory the system runs with.
	Memory *memory.Memory

	// CPU is the processor which executes the guest program.
	CPU *z80.CPU

	// Logger holds a logger which we use for debugging and
	// diagnostics.
	Logger *slog.Logger

	// input is where console input comes from.
	input *consolein.ConsoleIn

	// output is where console output goes.
	output *consoleout.ConsoleOut

	// files is the cache we use for file handles.
	files map[uint16]FileCache

	// dma contains the offset of the DMA area which is used
	// for block I/O.
	dma uint16

	// start contains the location to which we load our binaries,
	// and execute them from.  All CP/M binaries are loaded at
	// 0x0100; the command processor lives at a higher location so
	// that it isn't overwritten by the programs it launches.
	start uint16

	// currentDrive contains the currently selected drive.
	// Valid values are 00-15, where 0 is A:.
	currentDrive uint8

	// userNumber contains the current user number, 00-15.
	userNumber uint8

	// findResults holds the matches of a find-first call, which
	// find-next walks through.
	findResults []string

	// findOffset is the position within findResults.
	findOffset int
}

// New returns a new emulation object, using the given console
// drivers for input and output.
func New(logger *slog.Logger, input *consolein.ConsoleIn, output *consoleout.ConsoleOut) *CPM {

	tmp := &CPM{
		Logger: logger,
		input:  input,
		output: output,
		dma:    DefaultDMA,
		start:  TPAStart,
		files:  make(map[uint16]FileCache),
	}

	tmp.Memory = new(memory.Memory)
	tmp.CPU = z80.NewCPU(z80.NewState(tmp.Memory, tmp))
	tmp.CPU.Logger = logger

	tmp.Syscalls = bdosTable()
	tmp.BIOSCalls = biosTable()

	return tmp
}

// In satisfies the CPU's port-handler interface.  There is no real
// hardware behind the I/O ports, so reads return zero.
func (cpm *CPM) In(s *z80.State, port uint16) uint8 {
	cpm.Logger.Debug("port input",
		slog.Int("port", int(port)))
	return 0x00
}

// Out satisfies the CPU's port-handler interface; writes are discarded.
func (cpm *CPM) Out(s *z80.State, port uint16, value uint8) {
	cpm.Logger.Debug("port output",
		slog.Int("port", int(port)),
		slog.Int("value", int(value)))
}

// LoadBinary loads the given CP/M binary at the default address of
// 0x0100, where it can then be launched by Execute, and marshals the
// given arguments into the parameter buffer and the two default FCBs.
func (cpm *CPM) LoadBinary(filename string, args []string) error {

	err := cpm.Memory.LoadImage(cpm.start, filename)
	if err != nil {
		return fmt.Errorf("failed to load %s: %s", filename, err)
	}

	cpm.prepareLowMemory()
	cpm.setCommandLine(args)

	return nil
}

// LoadCCP assembles the command processor and loads it into RAM, to
// be executed instead of an external binary.
//
// This function modifies the "start" attribute, to ensure the shell
// is loaded and executed at a higher address than the default of
// 0x0100.
func (cpm *CPM) LoadCCP() error {

	data, err := ccp.Bytes()
	if err != nil {
		return err
	}

	cpm.Memory.SetRange(ccp.Base, data...)
	cpm.start = ccp.Base

	cpm.prepareLowMemory()

	return nil
}

// prepareLowMemory populates the vectors and scratch areas every
// CP/M program expects to find beneath the TPA, along with the
// padding behind our trap addresses.
func (cpm *CPM) prepareLowMemory() {
	m := cpm.Memory

	// JP <warm-boot>
	m.Set(WarmBootVector, 0xC3)
	m.SetU16(WarmBootVector+1, BiosBase+3)

	m.Set(IOByteAddr, 0x00)
	m.Set(DriveAddr, 0x00)

	// JP <bdos>
	m.Set(BdosVector, 0xC3)
	m.SetU16(BdosVector+1, BdosEntry)

	// FCB1: default drive, blank name.
	m.Set(DefaultFCB1, 0x00)
	m.FillRange(DefaultFCB1+1, 11, ' ')

	// FCB2: default drive, blank name.
	m.Set(DefaultFCB2, 0x00)
	m.FillRange(DefaultFCB2+1, 11, ' ')

	// Empty parameter buffer.
	m.Set(DefaultDMA, 0x00)

	// The traps fire before these bytes ever execute, but fill
	// the service region with RET so a stray jump is harmless.
	m.Set(BdosEntry, 0xC9)
	for i := uint16(0); i < BiosEntries; i++ {
		m.Set(BiosBase+3*i, 0xC9)
	}
}

// setCommandLine marshals the argument list into the parameter
// buffer, as a count-byte followed by the (upper-cased) text, and
// parses the first two arguments into the default FCBs.
func (cpm *CPM) setCommandLine(args []string) {
	m := cpm.Memory

	tail := strings.ToUpper(strings.Join(args, " "))
	if tail != "" {
		tail = " " + tail
	}
	if len(tail) > maxParamLen {
		tail = tail[:maxParamLen]
	}

	m.Set(DefaultDMA, uint8(len(tail)))
	m.SetRange(DefaultDMA+1, []uint8(tail)...)

	if len(args) > 0 {
		f := fcb.FromString(args[0])
		m.SetRange(DefaultFCB1, f.AsBytes()...)
	}
	if len(args) > 1 {
		// Only the drive/name/type head; the full structure
		// would overlap the parameter buffer.
		f := fcb.FromString(args[1])
		m.SetRange(DefaultFCB2, f.AsBytes()[:16]...)
	}
}

// Execute runs the loaded program until it terminates.
//
// The guest is stepped one instruction at a time; when the program
// counter lands on the BDOS entry-point, or within the BIOS vector
// table, the corresponding service routine runs on the host and a
// RET is simulated.  A clean exit is reported as ErrExit.
func (cpm *CPM) Execute() error {
	s := cpm.CPU.State

	s.Reg.SetPC(cpm.start)
	s.Reg.SetSP(TransientStack)

	// A zero return-address, so a program which simply returns
	// passes through the warm-boot vector.
	s.Push(0x0000)

	for {
		cpm.CPU.Step()

		if s.Halted {
			return ErrHalt
		}

		pc := s.Reg.PC()

		if pc >= BiosBase && pc < BiosBase+3*BiosEntries {
			err := cpm.biosCall(uint8((pc - BiosBase) / 3))
			if err != nil {
				return err
			}
			s.Reg.SetPC(s.Pop())
			continue
		}

		if pc == BdosEntry {
			err := cpm.bdosCall(s.Reg.Get8(z80.C))
			if err != nil {
				return err
			}
			s.Reg.SetPC(s.Pop())
			continue
		}

		// One byte short of the entry-point means the program
		// ran off the end of the TPA.
		if pc == BdosEntry-1 {
			return ErrRunaway
		}
	}
}

// bdosCall invokes the BDOS function with the given ID.
func (cpm *CPM) bdosCall(op uint8) error {

	handler, ok := cpm.Syscalls[op]
	if !ok {
		return fmt.Errorf("%w: BDOS function %03d", ErrUnimplemented, op)
	}

	cpm.Logger.Info("bdos",
		slog.Int("id", int(op)),
		slog.String("name", handler.Desc),
		slog.Int("de", int(cpm.CPU.State.Reg.Get16(z80.DE))))

	return handler.Handler(cpm)
}

// biosCall invokes the BIOS function whose vector was jumped to.
func (cpm *CPM) biosCall(op uint8) error {

	handler, ok := cpm.BIOSCalls[op]
	if !ok {
		return fmt.Errorf("%w: BIOS function %03d", ErrUnimplemented, op)
	}

	cpm.Logger.Info("bios",
		slog.Int("id", int(op)),
		slog.String("name", handler.Desc))

	return handler.Handler(cpm)
}

// setResult places a single-byte result where programs look for it;
// A and L carry the value, B and H are cleared.
func (cpm *CPM) setResult(v uint8) {
	s := cpm.CPU.State
	s.Reg.Set8(z80.A, v)
	s.Reg.Set16(z80.HL, uint16(v))
	s.Reg.Set8(z80.B, 0x00)
}

// setResult16 places a word result; HL carries the value, with A and
// B mirroring the low and high halves.
func (cpm *CPM) setResult16(v uint16) {
	s := cpm.CPU.State
	s.Reg.Set16(z80.HL, v)
	s.Reg.Set8(z80.A, uint8(v))
	s.Reg.Set8(z80.B, uint8(v>>8))
}

// fcbAt reads the FCB stored at the given address.
func (cpm *CPM) fcbAt(addr uint16) fcb.FCB {
	return fcb.FromBytes(cpm.Memory.GetRange(addr, fcb.Size))
}

// setFcb writes the FCB back to guest memory.
func (cpm *CPM) setFcb(addr uint16, f fcb.FCB) {
	cpm.Memory.SetRange(addr, f.AsBytes()...)
}

// Cleanup closes any filehandles the guest left open.
func (cpm *CPM) Cleanup() {
	for _, entry := range cpm.files {
		entry.handle.Close()
	}
	cpm.files = make(map[uint16]FileCache)
}
