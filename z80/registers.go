// Package z80 implements the CPU-side of our emulator: the register
// file, the execution state which couples registers to the guest
// memory, and an instruction engine which can decode and execute the
// documented Z80 instruction set.
//
// The operating-system layer lives elsewhere, in the cpm package,
// which drives the engine one instruction at a time and intercepts
// execution when it reaches the reserved BIOS/BDOS entry points.
package z80

// Reg8 names one of the 8-bit registers.
//
// H and L deserve a note: when an index-prefix is active the CPU
// transparently redirects access to them towards the halves of the
// selected index register.  That aliasing is handled by the State
// object, not here - the register file itself always stores the two
// sets in distinct cells.
type Reg8 uint8

// The 8-bit registers.
const (
	A Reg8 = iota
	F
	B
	C
	D
	E
	H
	L
	IXH
	IXL
	IYH
	IYL

	// Indirect is the pseudo-register used for "(HL)" operands.
	//
	// Reading or writing it goes to guest memory, at the address
	// found in whichever 16-bit register the current addressing
	// context selects, plus any displacement.
	Indirect
)

// Reg16 names one of the 16-bit registers, or register pairs.
type Reg16 uint8

// The 16-bit registers.
const (
	AF Reg16 = iota
	BC
	DE
	HL
	IX
	IY
	SP
)

// The flag bits held within the F register.
const (
	FlagC uint8 = 1 << 0 // carry
	FlagN uint8 = 1 << 1 // add/subtract
	FlagP uint8 = 1 << 2 // parity/overflow
	Flag3 uint8 = 1 << 3 // undocumented, copy of result bit 3
	FlagH uint8 = 1 << 4 // half-carry
	Flag5 uint8 = 1 << 5 // undocumented, copy of result bit 5
	FlagZ uint8 = 1 << 6 // zero
	FlagS uint8 = 1 << 7 // sign
)

// pairHi maps a register pair to the 8-bit register forming its
// high half.  The low half is always the next entry along.
var pairHi = map[Reg16]Reg8{
	AF: A,
	BC: B,
	DE: D,
	HL: H,
	IX: IXH,
	IY: IYH,
}

// Registers is the Z80 register file.
//
// Any 16-bit pair always equals high*256+low of its two halves, since
// the pairs are stored as their halves and composed on demand.  The
// file is created once, at process start, and mutated continuously by
// the engine until the process exits.
type Registers struct {
	// data holds the primary 8-bit registers, indexed by Reg8.
	data [12]uint8

	// alt holds the alternate set, reached via EX AF,AF' and EXX.
	alt [8]uint8

	// i and r are the interrupt-vector and refresh registers.
	i uint8
	r uint8

	// sp and pc are the stack pointer and program counter.
	sp uint16
	pc uint16

	// Interrupt state.  We store it for completeness, but as our
	// guest is an operating system with no interrupt sources the
	// values are never acted upon.
	iff1 bool
	iff2 bool
	im   uint8
}

// Get8 returns the value of the given 8-bit register.
func (reg *Registers) Get8(r Reg8) uint8 {
	return reg.data[r]
}

// Set8 updates the given 8-bit register.
func (reg *Registers) Set8(r Reg8, value uint8) {
	reg.data[r] = value
}

// Get16 returns the value of the given 16-bit register.
func (reg *Registers) Get16(rr Reg16) uint16 {
	if rr == SP {
		return reg.sp
	}
	hi := pairHi[rr]
	return uint16(reg.data[hi])<<8 | uint16(reg.data[hi+1])
}

// Set16 updates the given 16-bit register, keeping the two 8-bit
// halves consistent with the pair.
func (reg *Registers) Set16(rr Reg16, value uint16) {
	if rr == SP {
		reg.sp = value
		return
	}
	hi := pairHi[rr]
	reg.data[hi] = uint8(value >> 8)
	reg.data[hi+1] = uint8(value)
}

// PC returns the program counter.
func (reg *Registers) PC() uint16 {
	return reg.pc
}

// SetPC updates the program counter.
func (reg *Registers) SetPC(value uint16) {
	reg.pc = value
}

// SP returns the stack pointer.
func (reg *Registers) SP() uint16 {
	return reg.sp
}

// SetSP updates the stack pointer.
func (reg *Registers) SetSP(value uint16) {
	reg.sp = value
}

// Flag reports whether the given flag bit is set.
func (reg *Registers) Flag(mask uint8) bool {
	return reg.data[F]&mask != 0
}

// SetFlag sets, or clears, the given flag bit.
func (reg *Registers) SetFlag(mask uint8, on bool) {
	if on {
		reg.data[F] |= mask
	} else {
		reg.data[F] &^= mask
	}
}

// SwapAF exchanges AF with its alternate, for EX AF,AF'.
func (reg *Registers) SwapAF() {
	reg.data[A], reg.alt[A] = reg.alt[A], reg.data[A]
	reg.data[F], reg.alt[F] = reg.alt[F], reg.data[F]
}

// Exx exchanges BC, DE and HL with their alternates.
func (reg *Registers) Exx() {
	for _, r := range []Reg8{B, C, D, E, H, L} {
		reg.data[r], reg.alt[r] = reg.alt[r], reg.data[r]
	}
}
