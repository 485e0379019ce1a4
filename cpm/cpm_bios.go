// This file implements the BIOS entry-points.
//
// Programs which talk to the BIOS directly jump through the vector
// table at the top of RAM, one three-byte slot per function.  Most of
// the disk-level functions are stubs; everything file-shaped happens
// at the BDOS level instead.

package cpm

import (
	"fmt"

	"github.com/cpm80/cpmemu/z80"
)

// biosTable returns the BIOS functions we implement, indexed by the
// offset of their vector in the jump-table.
func biosTable() map[uint8]Handler {

	b := make(map[uint8]Handler)

	b[0] = Handler{Desc: "BOOT", Handler: BiosSysCallColdBoot}
	b[1] = Handler{Desc: "WBOOT", Handler: BiosSysCallWarmBoot}
	b[2] = Handler{Desc: "CONST", Handler: BiosSysCallConsoleStatus}
	b[3] = Handler{Desc: "CONIN", Handler: BiosSysCallConsoleInput}
	b[4] = Handler{Desc: "CONOUT", Handler: BiosSysCallConsoleOutput}
	b[5] = Handler{Desc: "LIST", Handler: BiosSysCallPrintChar}
	b[6] = Handler{Desc: "PUNCH", Handler: BiosSysCallPunch}
	b[7] = Handler{Desc: "READER", Handler: BiosSysCallReader}
	b[8] = Handler{Desc: "HOME", Handler: BiosSysCallNop}
	b[9] = Handler{Desc: "SELDSK", Handler: BiosSysCallSelectDisk}
	b[10] = Handler{Desc: "SETTRK", Handler: BiosSysCallNop}
	b[11] = Handler{Desc: "SETSEC", Handler: BiosSysCallNop}
	b[12] = Handler{Desc: "SETDMA", Handler: BiosSysCallSetDMA}
	b[13] = Handler{Desc: "READ", Handler: BiosSysCallDiskError}
	b[14] = Handler{Desc: "WRITE", Handler: BiosSysCallDiskError}
	b[15] = Handler{Desc: "LISTST", Handler: BiosSysCallListStatus}
	b[16] = Handler{Desc: "SECTRAN", Handler: BiosSysCallSectorTranslate}

	return b
}

// BiosSysCallColdBoot ends the run; with no operating system to
// reload there is nothing else a boot can mean.
func BiosSysCallColdBoot(cpm *CPM) error {
	return ErrExit
}

// BiosSysCallWarmBoot ends the run, like the cold boot.  Programs
// terminate with "JP 0x0000", which arrives here.
func BiosSysCallWarmBoot(cpm *CPM) error {
	return ErrExit
}

// BiosSysCallConsoleStatus returns 0xFF in A if a character is
// waiting on the console, 0x00 otherwise.
func BiosSysCallConsoleStatus(cpm *CPM) error {
	if cpm.input.Status() {
		cpm.CPU.State.Reg.Set8(z80.A, 0xFF)
	} else {
		cpm.CPU.State.Reg.Set8(z80.A, 0x00)
	}
	return nil
}

// BiosSysCallConsoleInput blocks until a character is available,
// and returns it in A.  Nothing is echoed.
func BiosSysCallConsoleInput(cpm *CPM) error {
	c, err := cpm.input.BlockForCharacter()
	if err != nil {
		return fmt.Errorf("error reading console: %s", err)
	}
	cpm.CPU.State.Reg.Set8(z80.A, c)
	return nil
}

// BiosSysCallConsoleOutput writes the character in C to the console.
func BiosSysCallConsoleOutput(cpm *CPM) error {
	cpm.output.PutCharacter(cpm.CPU.State.Reg.Get8(z80.C))
	return nil
}

// BiosSysCallPrintChar should send the character in C to the
// printer; we have no printer, so it is discarded.
func BiosSysCallPrintChar(cpm *CPM) error {
	cpm.Logger.Debug("printer output discarded",
		"char", int(cpm.CPU.State.Reg.Get8(z80.C)))
	return nil
}

// BiosSysCallPunch discards the character in C, as we have no
// paper-tape punch.
func BiosSysCallPunch(cpm *CPM) error {
	return nil
}

// BiosSysCallReader has no paper-tape reader to read from, so it
// returns the EOF character.
func BiosSysCallReader(cpm *CPM) error {
	cpm.CPU.State.Reg.Set8(z80.A, 0x1A)
	return nil
}

// BiosSysCallSelectDisk pretends the selection succeeded; a real
// BIOS would return the disk parameter header in HL, we return zero.
func BiosSysCallSelectDisk(cpm *CPM) error {
	cpm.CPU.State.Reg.Set16(z80.HL, 0x0000)
	return nil
}

// BiosSysCallSetDMA records the DMA address passed in BC.
func BiosSysCallSetDMA(cpm *CPM) error {
	cpm.dma = cpm.CPU.State.Reg.Get16(z80.BC)
	return nil
}

// BiosSysCallDiskError reports failure for the sector-level read and
// write entry-points, which we do not support.
func BiosSysCallDiskError(cpm *CPM) error {
	cpm.CPU.State.Reg.Set8(z80.A, 0x01)
	return nil
}

// BiosSysCallListStatus reports the printer as never ready.
func BiosSysCallListStatus(cpm *CPM) error {
	cpm.CPU.State.Reg.Set8(z80.A, 0x00)
	return nil
}

// BiosSysCallSectorTranslate performs no translation; the logical
// sector in BC is returned in HL unchanged.
func BiosSysCallSectorTranslate(cpm *CPM) error {
	s := cpm.CPU.State
	s.Reg.Set16(z80.HL, s.Reg.Get16(z80.BC))
	return nil
}

// BiosSysCallNop is used for the track/sector entry-points which
// have nothing to do when the "disk" is a host directory.
func BiosSysCallNop(cpm *CPM) error {
	return nil
}
