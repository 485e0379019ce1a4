// Package memory provides the 64k of RAM within which the emulator
// executes its programs, along with helpers for loading program
// images into it.
package memory

import (
	"fmt"
	"os"
)

// Size is the number of bytes of guest RAM.
const Size = 65536

// Memory provides 64K bytes of array memory.
//
// It satisfies the z80.Memory interface; addresses are uint16 so
// arithmetic wraps and no access can ever be out of range.
type Memory struct {
	buf [Size]uint8
}

// Set sets a byte at addr of memory.
func (m *Memory) Set(addr uint16, value uint8) {
	m.buf[addr] = value
}

// Get returns a byte at addr of memory.
func (m *Memory) Get(addr uint16) uint8 {
	return m.buf[addr]
}

// GetU16 returns the little-endian word stored at the given address.
func (m *Memory) GetU16(addr uint16) uint16 {
	l := m.Get(addr)
	h := m.Get(addr + 1)
	return uint16(h)<<8 | uint16(l)
}

// SetU16 stores a word at the given address, low byte first.
func (m *Memory) SetU16(addr uint16, value uint16) {
	m.Set(addr, uint8(value))
	m.Set(addr+1, uint8(value>>8))
}

// SetRange copies the given bytes into RAM at the specified starting
// address.  Bytes which would fall beyond the top of memory are
// dropped.
func (m *Memory) SetRange(addr uint16, data ...uint8) {
	avail := Size - int(addr)
	if len(data) > avail {
		data = data[:avail]
	}
	copy(m.buf[int(addr):int(addr)+len(data)], data)
}

// FillRange fills an area of memory with the given byte.
func (m *Memory) FillRange(addr uint16, size int, char uint8) {
	for size > 0 {
		m.buf[addr] = char
		addr++
		size--
	}
}

// GetRange returns a copy of the given region.
func (m *Memory) GetRange(addr uint16, size int) []uint8 {
	var ret []uint8
	for size > 0 {
		ret = append(ret, m.buf[addr])
		addr++
		size--
	}
	return ret
}

// LoadImage reads a raw memory image from the named file and places
// it at the given address.
//
// The image has no header; if it is larger than the space between the
// load address and the top of memory it is silently truncated, which
// matches how real hardware would behave when handed an over-sized
// binary.
func (m *Memory) LoadImage(addr uint16, name string) error {

	prog, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %s", name, err)
	}

	m.SetRange(addr, prog...)
	return nil
}
