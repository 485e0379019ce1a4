// This file implements the BDOS function-calls.
//
// These are documented online:
//
// * https://www.seasip.info/Cpm/bdos.html

package cpm

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cpm80/cpmemu/consolein"
	"github.com/cpm80/cpmemu/fcb"
	"github.com/cpm80/cpmemu/z80"
)

// bdosTable returns the BDOS functions we implement, indexed by
// their function number, as found in the C register on entry.
func bdosTable() map[uint8]Handler {

	sys := make(map[uint8]Handler)

	sys[0] = Handler{Desc: "P_TERMCPM", Handler: BdosSysCallExit}
	sys[1] = Handler{Desc: "C_READ", Handler: BdosSysCallReadChar}
	sys[2] = Handler{Desc: "C_WRITE", Handler: BdosSysCallWriteChar}
	sys[3] = Handler{Desc: "A_READ", Handler: BdosSysCallAuxRead}
	sys[4] = Handler{Desc: "A_WRITE", Handler: BdosSysCallAuxWrite}
	sys[5] = Handler{Desc: "L_WRITE", Handler: BdosSysCallPrinterWrite}
	sys[6] = Handler{Desc: "C_RAWIO", Handler: BdosSysCallRawIO}
	sys[7] = Handler{Desc: "GET_IOBYTE", Handler: BdosSysCallGetIOByte}
	sys[8] = Handler{Desc: "SET_IOBYTE", Handler: BdosSysCallSetIOByte}
	sys[9] = Handler{Desc: "C_WRITESTRING", Handler: BdosSysCallWriteString}
	sys[10] = Handler{Desc: "C_READSTRING", Handler: BdosSysCallReadString}
	sys[11] = Handler{Desc: "C_STAT", Handler: BdosSysCallConsoleStatus}
	sys[12] = Handler{Desc: "S_BDOSVER", Handler: BdosSysCallBDOSVersion}
	sys[13] = Handler{Desc: "DRV_ALLRESET", Handler: BdosSysCallDriveAllReset}
	sys[14] = Handler{Desc: "DRV_SET", Handler: BdosSysCallDriveSet}
	sys[15] = Handler{Desc: "F_OPEN", Handler: BdosSysCallFileOpen}
	sys[16] = Handler{Desc: "F_CLOSE", Handler: BdosSysCallFileClose}
	sys[17] = Handler{Desc: "F_SFIRST", Handler: BdosSysCallFindFirst}
	sys[18] = Handler{Desc: "F_SNEXT", Handler: BdosSysCallFindNext}
	sys[19] = Handler{Desc: "F_DELETE", Handler: BdosSysCallDeleteFile}
	sys[20] = Handler{Desc: "F_READ", Handler: BdosSysCallRead}
	sys[21] = Handler{Desc: "F_WRITE", Handler: BdosSysCallWrite}
	sys[22] = Handler{Desc: "F_MAKE", Handler: BdosSysCallMakeFile}
	sys[23] = Handler{Desc: "F_RENAME", Handler: BdosSysCallRenameFile}
	sys[24] = Handler{Desc: "DRV_LOGINVEC", Handler: BdosSysCallLoginVec}
	sys[25] = Handler{Desc: "DRV_GET", Handler: BdosSysCallDriveGet}
	sys[26] = Handler{Desc: "F_DMAOFF", Handler: BdosSysCallSetDMA}
	sys[32] = Handler{Desc: "F_USERNUM", Handler: BdosSysCallUserNumber}
	sys[33] = Handler{Desc: "F_READRAND", Handler: BdosSysCallReadRand}
	sys[34] = Handler{Desc: "F_WRITERAND", Handler: BdosSysCallWriteRand}

	return sys
}

// BdosSysCallExit implements the Exit syscall.
func BdosSysCallExit(cpm *CPM) error {
	return ErrExit
}

// BdosSysCallReadChar reads a single character from the console,
// echoing it.
func BdosSysCallReadChar(cpm *CPM) error {

	c, err := cpm.input.BlockForCharacter()
	if err != nil {
		return fmt.Errorf("error in call to BlockForCharacter: %s", err)
	}
	cpm.output.PutCharacter(c)

	cpm.setResult(c)
	return nil
}

// BdosSysCallWriteChar writes the single character in the E register
// to the console.
func BdosSysCallWriteChar(cpm *CPM) error {
	cpm.output.PutCharacter(cpm.CPU.State.Reg.Get8(z80.E))
	return nil
}

// BdosSysCallAuxRead reads a single character from the auxiliary
// input, which is the console here.
//
// Note: Echo is not enabled in this function.
func BdosSysCallAuxRead(cpm *CPM) error {

	c, err := cpm.input.BlockForCharacter()
	if err != nil {
		return fmt.Errorf("error in call to BlockForCharacter: %s", err)
	}

	cpm.setResult(c)
	return nil
}

// BdosSysCallAuxWrite writes the single character in the E register
// to the auxiliary output, which is the console here.
func BdosSysCallAuxWrite(cpm *CPM) error {
	cpm.output.PutCharacter(cpm.CPU.State.Reg.Get8(z80.E))
	return nil
}

// BdosSysCallPrinterWrite should send a single character to the
// printer; we have no printer so the output is discarded.
func BdosSysCallPrinterWrite(cpm *CPM) error {
	cpm.Logger.Debug("printer output discarded",
		"char", int(cpm.CPU.State.Reg.Get8(z80.E)))
	return nil
}

// BdosSysCallRawIO handles both simple character output, and input.
//
// Note that we have to poll and determine if character input is
// present in this function, otherwise games don't work well.
func BdosSysCallRawIO(cpm *CPM) error {

	switch cpm.CPU.State.Reg.Get8(z80.E) {
	case 0xFF:
		// Return a character without echoing if one is
		// waiting; zero if none is available.
		cpm.setResult(0x00)
		if cpm.input.Status() {
			c, err := cpm.input.BlockForCharacter()
			if err != nil {
				return err
			}
			cpm.setResult(c)
		}
	case 0xFE:
		// Console input status; zero if no character is
		// waiting, nonzero otherwise.
		cpm.setResult(0x00)
		if cpm.input.Status() {
			cpm.setResult(0xFF)
		}
	case 0xFD:
		// Wait until a character is ready, return it without
		// echoing.
		c, err := cpm.input.BlockForCharacter()
		if err != nil {
			return err
		}
		cpm.setResult(c)
	default:
		// Anything else is to output a character.
		cpm.output.PutCharacter(cpm.CPU.State.Reg.Get8(z80.E))
		cpm.setResult(0x00)
	}
	return nil
}

// BdosSysCallGetIOByte gets the IOByte, which is used to describe
// which devices are used for I/O.  No CP/M utilities use it, except
// for STAT and PIP.
//
// The IOByte lives at 0x0003 in RAM, so it is often accessed
// directly when it is used.
func BdosSysCallGetIOByte(cpm *CPM) error {
	cpm.setResult(cpm.Memory.Get(IOByteAddr))
	return nil
}

// BdosSysCallSetIOByte sets the IOByte.
func BdosSysCallSetIOByte(cpm *CPM) error {
	cpm.Memory.Set(IOByteAddr, cpm.CPU.State.Reg.Get8(z80.E))
	return nil
}

// BdosSysCallWriteString writes the $-terminated string pointed to
// by DE to the console.
func BdosSysCallWriteString(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)

	c := cpm.Memory.Get(addr)
	for c != '$' {
		cpm.output.PutCharacter(c)
		addr++
		c = cpm.Memory.Get(addr)
	}

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallReadString reads a line from the console, into the
// buffer pointed to by DE.
func BdosSysCallReadString(cpm *CPM) error {

	// DE points to the buffer; if DE is 0x0000 then the DMA
	// area is used instead.
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	if addr == 0 {
		addr = cpm.dma
	}

	// First byte is the maximum length.
	max := cpm.Memory.Get(addr)

	text, err := cpm.input.ReadLine(max, func(c byte) {
		cpm.output.PutCharacter(c)
	})

	if err != nil {
		// Ctrl-C aborts the program, not just the read.
		if err == consolein.ErrInterrupted {
			return ErrExit
		}
		return err
	}

	// addr[1] is the size of the input read.
	cpm.Memory.Set(addr+1, uint8(len(text)))

	// addr[2+] is the text.
	for i := 0; i < len(text); i++ {
		cpm.Memory.Set(addr+2+uint16(i), text[i])
	}

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallConsoleStatus tests if we have pending console input.
func BdosSysCallConsoleStatus(cpm *CPM) error {
	if cpm.input.Status() {
		cpm.setResult(0xFF)
	} else {
		cpm.setResult(0x00)
	}
	return nil
}

// BdosSysCallBDOSVersion returns the BDOS version; we report
// ourselves as CP/M 2.2.
func BdosSysCallBDOSVersion(cpm *CPM) error {
	cpm.setResult16(0x0022)
	return nil
}

// BdosSysCallDriveAllReset resets the disk system; the DMA address
// returns to its default and any find-in-progress is discarded.
func BdosSysCallDriveAllReset(cpm *CPM) error {
	cpm.dma = DefaultDMA
	cpm.findResults = nil
	cpm.findOffset = 0
	cpm.setResult(0x00)
	return nil
}

// BdosSysCallDriveSet selects the current drive.  Every drive maps
// to the host working directory, so this only records the number.
func BdosSysCallDriveSet(cpm *CPM) error {
	cpm.currentDrive = cpm.CPU.State.Reg.Get8(z80.E) & 0x0F
	cpm.Memory.Set(DriveAddr, cpm.currentDrive)
	cpm.setResult(0x00)
	return nil
}

// fileFor returns the filehandle associated with the FCB at the
// given address, opening (or creating) the host file on first use.
func (cpm *CPM) fileFor(addr uint16, f *fcb.FCB, flags int) (*os.File, error) {

	name := f.HostName()

	if entry, ok := cpm.files[addr]; ok {
		if entry.name == name {
			return entry.handle, nil
		}
		// The program reused the FCB for a different file.
		entry.handle.Close()
		delete(cpm.files, addr)
	}

	handle, err := os.OpenFile(name, flags, 0o644)
	if err != nil {
		return nil, err
	}

	cpm.files[addr] = FileCache{name: name, handle: handle}
	return handle, nil
}

// BdosSysCallFileOpen opens the file named in the FCB pointed to
// by DE.
func BdosSysCallFileOpen(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	f := cpm.fcbAt(addr)

	_, err := cpm.fileFor(addr, &f, os.O_RDWR)
	if err != nil {
		// Read-only files, or read-only media.
		_, err = cpm.fileFor(addr, &f, os.O_RDONLY)
	}
	if err != nil {
		cpm.Logger.Debug("open failed",
			"name", f.HostName(),
			"error", err)
		cpm.setResult(0xFF)
		return nil
	}

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallFileClose closes the file associated with the FCB
// pointed to by DE.
func BdosSysCallFileClose(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)

	if entry, ok := cpm.files[addr]; ok {
		entry.handle.Close()
		delete(cpm.files, addr)
	}

	cpm.setResult(0x00)
	return nil
}

// matchingFiles returns the host files matching the possibly
// wildcarded FCB, in a stable order.
func matchingFiles(f *fcb.FCB) []string {

	var matches []string

	entries, err := os.ReadDir(".")
	if err != nil {
		return matches
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if f.Matches(strings.ToUpper(entry.Name())) {
			matches = append(matches, entry.Name())
		}
	}

	sort.Strings(matches)
	return matches
}

// writeDirEntry places a directory entry for the given host file
// into the DMA area, where programs expect find-results.
func (cpm *CPM) writeDirEntry(name string) {
	ent := fcb.FromString(strings.ToUpper(name))

	cpm.Memory.FillRange(cpm.dma, 32, 0x00)
	cpm.Memory.SetRange(cpm.dma, ent.AsBytes()[:12]...)
}

// BdosSysCallFindFirst finds the first file matching the pattern in
// the FCB pointed to by DE.
func BdosSysCallFindFirst(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	f := cpm.fcbAt(addr)

	cpm.findResults = matchingFiles(&f)
	cpm.findOffset = 0

	if len(cpm.findResults) == 0 {
		cpm.setResult(0xFF)
		return nil
	}

	cpm.writeDirEntry(cpm.findResults[0])
	cpm.findOffset = 1
	cpm.setResult(0x00)
	return nil
}

// BdosSysCallFindNext returns the next file matching the pattern
// given to the previous find-first.
func BdosSysCallFindNext(cpm *CPM) error {

	if cpm.findOffset >= len(cpm.findResults) {
		cpm.setResult(0xFF)
		return nil
	}

	cpm.writeDirEntry(cpm.findResults[cpm.findOffset])
	cpm.findOffset++
	cpm.setResult(0x00)
	return nil
}

// BdosSysCallDeleteFile deletes the file (or files, given a
// wildcard) named in the FCB pointed to by DE.
func BdosSysCallDeleteFile(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	f := cpm.fcbAt(addr)

	matches := matchingFiles(&f)
	if len(matches) == 0 {
		cpm.setResult(0xFF)
		return nil
	}

	for _, name := range matches {
		err := os.Remove(name)
		if err != nil {
			cpm.Logger.Debug("delete failed",
				"name", name,
				"error", err)
			cpm.setResult(0xFF)
			return nil
		}
	}

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallRead reads the next 128-byte record from the file
// associated with the FCB pointed to by DE, into the DMA area.
//
// Short reads are padded with the EOF character.
func BdosSysCallRead(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	f := cpm.fcbAt(addr)

	handle, err := cpm.fileFor(addr, &f, os.O_RDWR)
	if err != nil {
		handle, err = cpm.fileFor(addr, &f, os.O_RDONLY)
	}
	if err != nil {
		cpm.setResult(0xFF)
		return nil
	}

	rec := f.SequentialRecord()

	buf := make([]byte, blkSize)
	n, _ := handle.ReadAt(buf, rec*blkSize)
	if n == 0 {
		cpm.setResult(0x01)
		return nil
	}
	for i := n; i < blkSize; i++ {
		buf[i] = 0x1A
	}

	cpm.Memory.SetRange(cpm.dma, buf...)

	f.SetSequentialRecord(rec + 1)
	cpm.setFcb(addr, f)

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallWrite writes the next 128-byte record, from the DMA
// area, to the file associated with the FCB pointed to by DE.
func BdosSysCallWrite(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	f := cpm.fcbAt(addr)

	handle, err := cpm.fileFor(addr, &f, os.O_RDWR|os.O_CREATE)
	if err != nil {
		cpm.setResult(0xFF)
		return nil
	}

	rec := f.SequentialRecord()

	buf := cpm.Memory.GetRange(cpm.dma, blkSize)
	_, err = handle.WriteAt(buf, rec*blkSize)
	if err != nil {
		cpm.setResult(0xFF)
		return nil
	}

	f.SetSequentialRecord(rec + 1)
	cpm.setFcb(addr, f)

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallMakeFile creates, and opens, the file named in the FCB
// pointed to by DE.
func BdosSysCallMakeFile(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	f := cpm.fcbAt(addr)

	_, err := cpm.fileFor(addr, &f, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		cpm.Logger.Debug("make failed",
			"name", f.HostName(),
			"error", err)
		cpm.setResult(0xFF)
		return nil
	}

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallRenameFile renames a file; the FCB pointed to by DE
// holds the old name, with the new name sixteen bytes in.
func BdosSysCallRenameFile(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)

	oldF := cpm.fcbAt(addr)
	newF := cpm.fcbAt(addr + 16)

	err := os.Rename(oldF.HostName(), newF.HostName())
	if err != nil {
		cpm.Logger.Debug("rename failed",
			"old", oldF.HostName(),
			"new", newF.HostName(),
			"error", err)
		cpm.setResult(0xFF)
		return nil
	}

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallLoginVec returns the bitmap of logged-in drives; only
// A: exists.
func BdosSysCallLoginVec(cpm *CPM) error {
	cpm.setResult16(0x0001)
	return nil
}

// BdosSysCallDriveGet returns the currently selected drive.
func BdosSysCallDriveGet(cpm *CPM) error {
	cpm.setResult(cpm.currentDrive)
	return nil
}

// BdosSysCallSetDMA updates the address used for block I/O.
func BdosSysCallSetDMA(cpm *CPM) error {
	cpm.dma = cpm.CPU.State.Reg.Get16(z80.DE)
	return nil
}

// BdosSysCallUserNumber gets, or sets, the user number.
func BdosSysCallUserNumber(cpm *CPM) error {
	e := cpm.CPU.State.Reg.Get8(z80.E)

	if e == 0xFF {
		cpm.setResult(cpm.userNumber)
		return nil
	}

	cpm.userNumber = e & 0x0F
	cpm.setResult(0x00)
	return nil
}

// BdosSysCallReadRand reads the record named by the random-record
// field of the FCB pointed to by DE, into the DMA area.
//
// The sequential position follows the random one, as programs mix
// the two freely.
func BdosSysCallReadRand(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	f := cpm.fcbAt(addr)

	handle, err := cpm.fileFor(addr, &f, os.O_RDWR)
	if err != nil {
		handle, err = cpm.fileFor(addr, &f, os.O_RDONLY)
	}
	if err != nil {
		cpm.setResult(0xFF)
		return nil
	}

	rec := f.RandomRecord()

	buf := make([]byte, blkSize)
	n, _ := handle.ReadAt(buf, rec*blkSize)
	if n == 0 {
		cpm.setResult(0x01)
		return nil
	}
	for i := n; i < blkSize; i++ {
		buf[i] = 0x1A
	}

	cpm.Memory.SetRange(cpm.dma, buf...)

	f.SetSequentialRecord(rec)
	cpm.setFcb(addr, f)

	cpm.setResult(0x00)
	return nil
}

// BdosSysCallWriteRand writes the DMA area to the record named by
// the random-record field of the FCB pointed to by DE.
func BdosSysCallWriteRand(cpm *CPM) error {
	addr := cpm.CPU.State.Reg.Get16(z80.DE)
	f := cpm.fcbAt(addr)

	handle, err := cpm.fileFor(addr, &f, os.O_RDWR|os.O_CREATE)
	if err != nil {
		cpm.setResult(0xFF)
		return nil
	}

	rec := f.RandomRecord()

	buf := cpm.Memory.GetRange(cpm.dma, blkSize)
	_, err = handle.WriteAt(buf, rec*blkSize)
	if err != nil {
		cpm.setResult(0xFF)
		return nil
	}

	f.SetSequentialRecord(rec)
	cpm.setFcb(addr, f)

	cpm.setResult(0x00)
	return nil
}
