// The instruction engine: fetch, decode, and execute a single
// instruction against a State.
//
// The decode scheme follows the usual quadrant decomposition of the
// opcode byte (x = bits 6-7, y = bits 3-5, z = bits 0-2), with the
// DD/FD prefixes expressed through the State's addressing-mode
// context rather than through duplicated opcode tables.

package z80

import (
	"fmt"
	"log/slog"
)

// regTable maps the three-bit register field of an opcode to a
// register name.  Slot six is the indirect pseudo-register.
var regTable = [8]Reg8{B, C, D, E, H, L, Indirect, A}

// rpTable maps the two-bit register-pair field to a pair.
var rpTable = [4]Reg16{BC, DE, HL, SP}

// rp2Table is the variant used by PUSH and POP.
var rp2Table = [4]Reg16{BC, DE, HL, AF}

// CPU decodes and executes instructions, one at a time, against its
// execution state.
type CPU struct {
	// State is the execution state we operate upon.
	State *State

	// Logger, when non-nil, receives a debug-level record for
	// every executed instruction.
	Logger *slog.Logger
}

// NewCPU returns an engine operating on the given state.
func NewCPU(state *State) *CPU {
	return &CPU{State: state}
}

// condition evaluates the three-bit condition field used by the
// conditional jump, call, and return instructions.
func condition(s *State, y uint8) bool {
	switch y {
	case 0:
		return !s.Reg.Flag(FlagZ)
	case 1:
		return s.Reg.Flag(FlagZ)
	case 2:
		return !s.Reg.Flag(FlagC)
	case 3:
		return s.Reg.Flag(FlagC)
	case 4:
		return !s.Reg.Flag(FlagP)
	case 5:
		return s.Reg.Flag(FlagP)
	case 6:
		return !s.Reg.Flag(FlagS)
	default:
		return s.Reg.Flag(FlagS)
	}
}

// fetchDisplacement reads the displacement byte which follows the
// opcode when an indexed instruction uses the indirect
// pseudo-register.  It must be called at most once per instruction,
// before the first indirect access.
func (s *State) fetchDisplacement() {
	if s.index != HL {
		s.displacement = int8(s.FetchByte())
	}
}

// relJump applies a signed relative jump to the program counter.
func relJump(s *State, d int8) {
	s.Reg.SetPC(s.Reg.PC() + uint16(int16(d)))
}

// Step fetches, decodes and executes one instruction.
//
// The addressing-mode context is set here, when an index-prefix is
// seen, and restored to the default through the single exit path
// below - no decode branch can leak an index selection into the next
// instruction.
func (c *CPU) Step() {
	s := c.State

	if s.Halted {
		return
	}

	if c.Logger != nil {
		c.Logger.Debug("step",
			slog.String("pc", fmt.Sprintf("0x%04X", s.Reg.PC())),
			slog.String("opcode", fmt.Sprintf("0x%02X", s.PeekPC())),
			slog.String("af", fmt.Sprintf("0x%04X", s.Reg.Get16(AF))),
			slog.String("bc", fmt.Sprintf("0x%04X", s.Reg.Get16(BC))),
			slog.String("de", fmt.Sprintf("0x%04X", s.Reg.Get16(DE))),
			slog.String("hl", fmt.Sprintf("0x%04X", s.Reg.Get16(HL))),
			slog.String("sp", fmt.Sprintf("0x%04X", s.Reg.SP())))
	}

	op := s.FetchByte()
	for op == 0xDD || op == 0xFD {
		if op == 0xDD {
			s.SetIndex(IX, 0)
		} else {
			s.SetIndex(IY, 0)
		}
		op = s.FetchByte()
	}

	switch op {
	case 0xCB:
		c.stepCB(s)
	case 0xED:
		c.stepED(s)
	default:
		c.execute(s, op)
	}

	s.Reg.r = s.Reg.r&0x80 | (s.Reg.r+1)&0x7F
	s.Cycles++
	s.ResetIndex()
}

// execute handles every unprefixed opcode.
func (c *CPU) execute(s *State, op uint8) {
	x := op >> 6
	y := op >> 3 & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 0:
		c.executeX0(s, y, z, p, q)
	case 1:
		if op == 0x76 {
			s.Halted = true
			return
		}

		dst, src := regTable[y], regTable[z]
		switch {
		case src == Indirect:
			// The non-memory operand stays literal under a
			// prefix: LD H,(IX+d) loads H, not IXH.
			s.fetchDisplacement()
			s.Reg.Set8(dst, s.GetReg(Indirect))
		case dst == Indirect:
			s.fetchDisplacement()
			s.SetReg(Indirect, s.Reg.Get8(src))
		default:
			s.SetReg(dst, s.GetReg(src))
		}
	case 2:
		r := regTable[z]
		if r == Indirect {
			s.fetchDisplacement()
		}
		aluA(s, y, s.GetReg(r))
	case 3:
		c.executeX3(s, y, z, p, q)
	}
}

// executeX0 handles the x=0 quadrant: relative jumps, 16-bit
// loads/arithmetic, 8-bit increments, and the accumulator one-byte
// operations.
func (c *CPU) executeX0(s *State, y, z, p, q uint8) {
	switch z {
	case 0:
		switch y {
		case 0:
			// NOP
		case 1:
			s.Reg.SwapAF()
		case 2: // DJNZ d
			d := int8(s.FetchByte())
			b := s.Reg.Get8(B) - 1
			s.Reg.Set8(B, b)
			if b != 0 {
				relJump(s, d)
			}
		case 3: // JR d
			relJump(s, int8(s.FetchByte()))
		default: // JR cc,d
			d := int8(s.FetchByte())
			if condition(s, y-4) {
				relJump(s, d)
			}
		}
	case 1:
		if q == 0 { // LD rr,nn
			s.SetReg16(rpTable[p], s.FetchWord())
		} else { // ADD HL,rr
			hl := s.GetReg16(HL)
			s.SetReg16(HL, add16(s, hl, s.GetReg16(rpTable[p])))
		}
	case 2:
		switch y {
		case 0: // LD (BC),A
			s.Mem.Set(s.Reg.Get16(BC), s.Reg.Get8(A))
		case 1: // LD A,(BC)
			s.Reg.Set8(A, s.Mem.Get(s.Reg.Get16(BC)))
		case 2: // LD (DE),A
			s.Mem.Set(s.Reg.Get16(DE), s.Reg.Get8(A))
		case 3: // LD A,(DE)
			s.Reg.Set8(A, s.Mem.Get(s.Reg.Get16(DE)))
		case 4: // LD (nn),HL
			addr := s.FetchWord()
			v := s.GetReg16(HL)
			s.Mem.Set(addr, uint8(v))
			s.Mem.Set(addr+1, uint8(v>>8))
		case 5: // LD HL,(nn)
			addr := s.FetchWord()
			v := uint16(s.Mem.Get(addr)) | uint16(s.Mem.Get(addr+1))<<8
			s.SetReg16(HL, v)
		case 6: // LD (nn),A
			s.Mem.Set(s.FetchWord(), s.Reg.Get8(A))
		case 7: // LD A,(nn)
			s.Reg.Set8(A, s.Mem.Get(s.FetchWord()))
		}
	case 3: // INC rr / DEC rr
		v := s.GetReg16(rpTable[p])
		if q == 0 {
			v++
		} else {
			v--
		}
		s.SetReg16(rpTable[p], v)
	case 4, 5: // INC r / DEC r
		r := regTable[y]
		if r == Indirect {
			s.fetchDisplacement()
		}
		v := s.GetReg(r)
		if z == 4 {
			v = inc8(s, v)
		} else {
			v = dec8(s, v)
		}
		s.SetReg(r, v)
	case 6: // LD r,n
		r := regTable[y]
		if r == Indirect {
			s.fetchDisplacement()
		}
		s.SetReg(r, s.FetchByte())
	case 7:
		switch y {
		case 0, 1, 2, 3:
			rotateA(s, y)
		case 4:
			daa(s)
		case 5: // CPL
			a := ^s.Reg.Get8(A)
			s.Reg.Set8(A, a)
			f := s.Reg.Get8(F)&(FlagS|FlagZ|FlagP|FlagC) |
				FlagH | FlagN | a&(Flag5|Flag3)
			s.Reg.Set8(F, f)
		case 6: // SCF
			f := s.Reg.Get8(F)&(FlagS|FlagZ|FlagP) |
				FlagC | s.Reg.Get8(A)&(Flag5|Flag3)
			s.Reg.Set8(F, f)
		case 7: // CCF
			f := s.Reg.Get8(F)
			nf := f&(FlagS|FlagZ|FlagP) | s.Reg.Get8(A)&(Flag5|Flag3)
			if f&FlagC != 0 {
				nf |= FlagH
			} else {
				nf |= FlagC
			}
			s.Reg.Set8(F, nf)
		}
	}
}

// executeX3 handles the x=3 quadrant: jumps, calls, returns, stack
// operations and port I/O.
func (c *CPU) executeX3(s *State, y, z, p, q uint8) {
	switch z {
	case 0: // RET cc
		if condition(s, y) {
			s.Reg.SetPC(s.Pop())
		}
	case 1:
		if q == 0 { // POP rr
			s.SetReg16(rp2Table[p], s.Pop())
		} else {
			switch p {
			case 0: // RET
				s.Reg.SetPC(s.Pop())
			case 1: // EXX
				s.Reg.Exx()
			case 2: // JP (HL)
				s.Reg.SetPC(s.GetReg16(HL))
			case 3: // LD SP,HL
				s.Reg.SetSP(s.GetReg16(HL))
			}
		}
	case 2: // JP cc,nn
		addr := s.FetchWord()
		if condition(s, y) {
			s.Reg.SetPC(addr)
		}
	case 3:
		switch y {
		case 0: // JP nn
			s.Reg.SetPC(s.FetchWord())
		case 2: // OUT (n),A
			n := s.FetchByte()
			a := s.Reg.Get8(A)
			s.PortOut(uint16(a)<<8|uint16(n), a)
		case 3: // IN A,(n)
			n := s.FetchByte()
			port := uint16(s.Reg.Get8(A))<<8 | uint16(n)
			s.Reg.Set8(A, s.PortIn(port))
		case 4: // EX (SP),HL
			sp := s.Reg.SP()
			v := uint16(s.Mem.Get(sp)) | uint16(s.Mem.Get(sp+1))<<8
			hl := s.GetReg16(HL)
			s.Mem.Set(sp, uint8(hl))
			s.Mem.Set(sp+1, uint8(hl>>8))
			s.SetReg16(HL, v)
		case 5: // EX DE,HL - never redirected by a prefix
			de := s.Reg.Get16(DE)
			s.Reg.Set16(DE, s.Reg.Get16(HL))
			s.Reg.Set16(HL, de)
		case 6: // DI
			s.Reg.iff1, s.Reg.iff2 = false, false
		case 7: // EI
			s.Reg.iff1, s.Reg.iff2 = true, true
		}
	case 4: // CALL cc,nn
		addr := s.FetchWord()
		if condition(s, y) {
			s.Push(s.Reg.PC())
			s.Reg.SetPC(addr)
		}
	case 5:
		if q == 0 { // PUSH rr
			s.Push(s.GetReg16(rp2Table[p]))
		} else { // CALL nn (p>0 are the prefix bytes, caught earlier)
			addr := s.FetchWord()
			s.Push(s.Reg.PC())
			s.Reg.SetPC(addr)
		}
	case 6: // ALU a,n
		aluA(s, y, s.FetchByte())
	case 7: // RST
		s.Push(s.Reg.PC())
		s.Reg.SetPC(uint16(y) * 8)
	}
}

// bitTest implements BIT b,r.
func bitTest(s *State, bit uint8, v uint8) {
	r := v & (1 << bit)

	f := s.Reg.Get8(F)&FlagC | FlagH | v&(Flag5|Flag3)
	if r == 0 {
		f |= FlagZ | FlagP
	}
	if r&0x80 != 0 {
		f |= FlagS
	}

	s.Reg.Set8(F, f)
}

// stepCB handles the CB-prefixed rotate, shift and bit instructions.
//
// Under an index-prefix the displacement byte arrives before the
// final opcode, and the operation targets memory; the result is also
// copied into the register named by the low bits, an undocumented
// behaviour some programs rely upon.
func (c *CPU) stepCB(s *State) {
	if s.Indexed() {
		s.displacement = int8(s.FetchByte())
	}

	op := s.FetchByte()
	x := op >> 6
	y := op >> 3 & 7
	z := op & 7

	if s.Indexed() {
		addr := s.indexAddress()
		v := s.Mem.Get(addr)

		var r uint8
		switch x {
		case 0:
			r = rotate(s, y, v)
		case 1:
			bitTest(s, y, v)
			return
		case 2:
			r = v &^ (1 << y)
		case 3:
			r = v | 1<<y
		}

		s.Mem.Set(addr, r)
		if z != 6 {
			s.Reg.Set8(regTable[z], r)
		}
		return
	}

	r := regTable[z]
	v := s.GetReg(r)
	switch x {
	case 0:
		s.SetReg(r, rotate(s, y, v))
	case 1:
		bitTest(s, y, v)
	case 2:
		s.SetReg(r, v&^(1<<y))
	case 3:
		s.SetReg(r, v|1<<y)
	}
}

// stepED handles the ED-prefixed instructions.
func (c *CPU) stepED(s *State) {
	op := s.FetchByte()
	x := op >> 6
	y := op >> 3 & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch {
	case x == 1:
		switch z {
		case 0: // IN r,(C); y=6 updates flags only
			v := s.PortIn(s.Reg.Get16(BC))
			if y != 6 {
				s.Reg.Set8(regTable[y], v)
			}
			s.Reg.Set8(F, s.Reg.Get8(F)&FlagC|sz53(v)|parity[v])
		case 1: // OUT (C),r; y=6 writes zero
			var v uint8
			if y != 6 {
				v = s.Reg.Get8(regTable[y])
			}
			s.PortOut(s.Reg.Get16(BC), v)
		case 2: // SBC/ADC HL,rr
			hl := s.Reg.Get16(HL)
			if q == 0 {
				s.Reg.Set16(HL, sbc16(s, hl, s.Reg.Get16(rpTable[p])))
			} else {
				s.Reg.Set16(HL, adc16(s, hl, s.Reg.Get16(rpTable[p])))
			}
		case 3: // LD (nn),rr / LD rr,(nn)
			addr := s.FetchWord()
			if q == 0 {
				v := s.Reg.Get16(rpTable[p])
				s.Mem.Set(addr, uint8(v))
				s.Mem.Set(addr+1, uint8(v>>8))
			} else {
				v := uint16(s.Mem.Get(addr)) |
					uint16(s.Mem.Get(addr+1))<<8
				s.Reg.Set16(rpTable[p], v)
			}
		case 4: // NEG
			a := s.Reg.Get8(A)
			s.Reg.Set8(A, 0)
			subA(s, a, false, true)
		case 5: // RETN / RETI
			s.Reg.iff1 = s.Reg.iff2
			s.Reg.SetPC(s.Pop())
		case 6: // IM 0/1/2
			switch y & 3 {
			case 0, 1:
				s.Reg.im = 0
			case 2:
				s.Reg.im = 1
			case 3:
				s.Reg.im = 2
			}
		case 7:
			switch y {
			case 0: // LD I,A
				s.Reg.i = s.Reg.Get8(A)
			case 1: // LD R,A
				s.Reg.r = s.Reg.Get8(A)
			case 2, 3: // LD A,I / LD A,R
				v := s.Reg.i
				if y == 3 {
					v = s.Reg.r
				}
				s.Reg.Set8(A, v)
				f := s.Reg.Get8(F)&FlagC | sz53(v)
				if s.Reg.iff2 {
					f |= FlagP
				}
				s.Reg.Set8(F, f)
			case 4:
				rrd(s)
			case 5:
				rld(s)
			}
		}
	case x == 2 && z <= 3 && y >= 4:
		c.blockOp(s, y, z)
	}
}

// rrd rotates the low nibbles of A and (HL) rightwards.
func rrd(s *State) {
	a := s.Reg.Get8(A)
	addr := s.Reg.Get16(HL)
	m := s.Mem.Get(addr)

	s.Mem.Set(addr, a<<4|m>>4)
	a = a&0xF0 | m&0x0F

	s.Reg.Set8(A, a)
	s.Reg.Set8(F, s.Reg.Get8(F)&FlagC|sz53(a)|parity[a])
}

// rld rotates the low nibbles of A and (HL) leftwards.
func rld(s *State) {
	a := s.Reg.Get8(A)
	addr := s.Reg.Get16(HL)
	m := s.Mem.Get(addr)

	s.Mem.Set(addr, m<<4|a&0x0F)
	a = a&0xF0 | m>>4

	s.Reg.Set8(A, a)
	s.Reg.Set8(F, s.Reg.Get8(F)&FlagC|sz53(a)|parity[a])
}

// blockOp handles the LDI/CPI/INI/OUTI family, including the
// repeating forms, which rewind the program counter rather than
// looping internally.
func (c *CPU) blockOp(s *State, y, z uint8) {
	var delta uint16 = 1
	if y&1 == 1 {
		delta = 0xFFFF
	}
	repeat := y >= 6

	hl := s.Reg.Get16(HL)

	switch z {
	case 0: // LDI/LDD/LDIR/LDDR
		de := s.Reg.Get16(DE)
		v := s.Mem.Get(hl)
		s.Mem.Set(de, v)
		s.Reg.Set16(HL, hl+delta)
		s.Reg.Set16(DE, de+delta)

		bc := s.Reg.Get16(BC) - 1
		s.Reg.Set16(BC, bc)

		n := v + s.Reg.Get8(A)
		f := s.Reg.Get8(F) & (FlagS | FlagZ | FlagC)
		if n&0x02 != 0 {
			f |= Flag5
		}
		if n&0x08 != 0 {
			f |= Flag3
		}
		if bc != 0 {
			f |= FlagP
		}
		s.Reg.Set8(F, f)

		if repeat && bc != 0 {
			s.Reg.SetPC(s.Reg.PC() - 2)
		}
	case 1: // CPI/CPD/CPIR/CPDR
		v := s.Mem.Get(hl)
		a := s.Reg.Get8(A)
		r := a - v
		s.Reg.Set16(HL, hl+delta)

		bc := s.Reg.Get16(BC) - 1
		s.Reg.Set16(BC, bc)

		f := s.Reg.Get8(F)&FlagC | FlagN | r&FlagS
		if r == 0 {
			f |= FlagZ
		}
		if (a^v^r)&0x10 != 0 {
			f |= FlagH
		}
		if bc != 0 {
			f |= FlagP
		}
		s.Reg.Set8(F, f)

		if repeat && bc != 0 && r != 0 {
			s.Reg.SetPC(s.Reg.PC() - 2)
		}
	case 2: // INI/IND/INIR/INDR
		v := s.PortIn(s.Reg.Get16(BC))
		s.Mem.Set(hl, v)
		s.Reg.Set16(HL, hl+delta)

		b := s.Reg.Get8(B) - 1
		s.Reg.Set8(B, b)
		s.Reg.Set8(F, FlagN|sz53(b))

		if repeat && b != 0 {
			s.Reg.SetPC(s.Reg.PC() - 2)
		}
	case 3: // OUTI/OUTD/OTIR/OTDR
		v := s.Mem.Get(hl)
		b := s.Reg.Get8(B) - 1
		s.Reg.Set8(B, b)
		s.PortOut(s.Reg.Get16(BC), v)
		s.Reg.Set16(HL, hl+delta)
		s.Reg.Set8(F, FlagN|sz53(b))

		if repeat && b != 0 {
			s.Reg.SetPC(s.Reg.PC() - 2)
		}
	}
}
