// Arithmetic and flag helpers for the instruction engine.

package z80

// parity holds FlagP for every byte with an even number of set bits.
var parity [256]uint8

func init() {
	for i := 0; i < 256; i++ {
		bits := 0
		for b := i; b != 0; b >>= 1 {
			bits += b & 1
		}
		if bits%2 == 0 {
			parity[i] = FlagP
		}
	}
}

// sz53 returns the S, Z and undocumented 5/3 bits for a result.
func sz53(v uint8) uint8 {
	f := v & (FlagS | Flag5 | Flag3)
	if v == 0 {
		f |= FlagZ
	}
	return f
}

// addA adds a value, and optionally the carry, into the accumulator.
func addA(s *State, value uint8, carry bool) {
	a := s.Reg.Get8(A)

	var c uint16
	if carry && s.Reg.Flag(FlagC) {
		c = 1
	}

	sum := uint16(a) + uint16(value) + c
	r := uint8(sum)

	f := sz53(r)
	if sum > 0xFF {
		f |= FlagC
	}
	if (a^value^r)&0x10 != 0 {
		f |= FlagH
	}
	if (a^r)&(value^r)&0x80 != 0 {
		f |= FlagP
	}

	s.Reg.Set8(A, r)
	s.Reg.Set8(F, f)
}

// subA subtracts a value, and optionally the carry, from the
// accumulator.  When store is false only the flags are updated, which
// is all a CP instruction does.
func subA(s *State, value uint8, carry bool, store bool) {
	a := s.Reg.Get8(A)

	var c int16
	if carry && s.Reg.Flag(FlagC) {
		c = 1
	}

	diff := int16(a) - int16(value) - c
	r := uint8(diff)

	f := sz53(r) | FlagN
	if diff < 0 {
		f |= FlagC
	}
	if (a^value^r)&0x10 != 0 {
		f |= FlagH
	}
	if (a^value)&(a^r)&0x80 != 0 {
		f |= FlagP
	}

	if store {
		s.Reg.Set8(A, r)
	}
	s.Reg.Set8(F, f)
}

// logicA applies AND, XOR or OR (op 4, 5 and 6 in the ALU encoding)
// to the accumulator.
func logicA(s *State, op uint8, value uint8) {
	a := s.Reg.Get8(A)

	var r uint8
	switch op {
	case 4:
		r = a & value
	case 5:
		r = a ^ value
	case 6:
		r = a | value
	}

	f := sz53(r) | parity[r]
	if op == 4 {
		f |= FlagH
	}

	s.Reg.Set8(A, r)
	s.Reg.Set8(F, f)
}

// aluA dispatches one of the eight accumulator operations.
func aluA(s *State, op uint8, value uint8) {
	switch op {
	case 0:
		addA(s, value, false)
	case 1:
		addA(s, value, true)
	case 2:
		subA(s, value, false, true)
	case 3:
		subA(s, value, true, true)
	case 4, 5, 6:
		logicA(s, op, value)
	case 7:
		subA(s, value, false, false)
	}
}

// inc8 increments a value, updating every flag except carry.
func inc8(s *State, v uint8) uint8 {
	r := v + 1

	f := sz53(r) | s.Reg.Get8(F)&FlagC
	if v&0x0F == 0x0F {
		f |= FlagH
	}
	if v == 0x7F {
		f |= FlagP
	}

	s.Reg.Set8(F, f)
	return r
}

// dec8 decrements a value, updating every flag except carry.
func dec8(s *State, v uint8) uint8 {
	r := v - 1

	f := sz53(r) | s.Reg.Get8(F)&FlagC | FlagN
	if v&0x0F == 0 {
		f |= FlagH
	}
	if v == 0x80 {
		f |= FlagP
	}

	s.Reg.Set8(F, f)
	return r
}

// add16 implements ADD HL,rr: only H, C, N and the undocumented bits
// change.
func add16(s *State, a, b uint16) uint16 {
	sum := uint32(a) + uint32(b)
	r := uint16(sum)

	f := s.Reg.Get8(F) & (FlagS | FlagZ | FlagP)
	f |= uint8(r>>8) & (Flag5 | Flag3)
	if sum > 0xFFFF {
		f |= FlagC
	}
	if (a^b^r)&0x1000 != 0 {
		f |= FlagH
	}

	s.Reg.Set8(F, f)
	return r
}

// adc16 implements ADC HL,rr, with the full flag treatment.
func adc16(s *State, a, b uint16) uint16 {
	var c uint32
	if s.Reg.Flag(FlagC) {
		c = 1
	}

	sum := uint32(a) + uint32(b) + c
	r := uint16(sum)

	f := uint8(r>>8) & (FlagS | Flag5 | Flag3)
	if r == 0 {
		f |= FlagZ
	}
	if sum > 0xFFFF {
		f |= FlagC
	}
	if (a^b^r)&0x1000 != 0 {
		f |= FlagH
	}
	if (a^r)&(b^r)&0x8000 != 0 {
		f |= FlagP
	}

	s.Reg.Set8(F, f)
	return r
}

// sbc16 implements SBC HL,rr.
func sbc16(s *State, a, b uint16) uint16 {
	var c int32
	if s.Reg.Flag(FlagC) {
		c = 1
	}

	diff := int32(a) - int32(b) - c
	r := uint16(diff)

	f := uint8(r>>8)&(FlagS|Flag5|Flag3) | FlagN
	if r == 0 {
		f |= FlagZ
	}
	if diff < 0 {
		f |= FlagC
	}
	if (a^b^r)&0x1000 != 0 {
		f |= FlagH
	}
	if (a^b)&(a^r)&0x8000 != 0 {
		f |= FlagP
	}

	s.Reg.Set8(F, f)
	return r
}

// rotateA implements the four accumulator rotates (RLCA, RRCA, RLA,
// RRA), which touch fewer flags than their CB-prefixed cousins.
func rotateA(s *State, op uint8) {
	a := s.Reg.Get8(A)
	carryIn := s.Reg.Flag(FlagC)

	var r uint8
	var carry bool
	switch op {
	case 0: // RLCA
		carry = a&0x80 != 0
		r = a<<1 | a>>7
	case 1: // RRCA
		carry = a&1 != 0
		r = a>>1 | a<<7
	case 2: // RLA
		carry = a&0x80 != 0
		r = a << 1
		if carryIn {
			r |= 1
		}
	case 3: // RRA
		carry = a&1 != 0
		r = a >> 1
		if carryIn {
			r |= 0x80
		}
	}

	f := s.Reg.Get8(F)&(FlagS|FlagZ|FlagP) | r&(Flag5|Flag3)
	if carry {
		f |= FlagC
	}

	s.Reg.Set8(A, r)
	s.Reg.Set8(F, f)
}

// rotate implements the eight CB-prefixed rotate/shift operations.
func rotate(s *State, op uint8, v uint8) uint8 {
	var r uint8
	var carry bool

	switch op {
	case 0: // RLC
		carry = v&0x80 != 0
		r = v<<1 | v>>7
	case 1: // RRC
		carry = v&1 != 0
		r = v>>1 | v<<7
	case 2: // RL
		carry = v&0x80 != 0
		r = v << 1
		if s.Reg.Flag(FlagC) {
			r |= 1
		}
	case 3: // RR
		carry = v&1 != 0
		r = v >> 1
		if s.Reg.Flag(FlagC) {
			r |= 0x80
		}
	case 4: // SLA
		carry = v&0x80 != 0
		r = v << 1
	case 5: // SRA
		carry = v&1 != 0
		r = v>>1 | v&0x80
	case 6: // SLL, undocumented: shifts a one into bit zero
		carry = v&0x80 != 0
		r = v<<1 | 1
	case 7: // SRL
		carry = v&1 != 0
		r = v >> 1
	}

	f := sz53(r) | parity[r]
	if carry {
		f |= FlagC
	}

	s.Reg.Set8(F, f)
	return r
}

// daa decimal-adjusts the accumulator after a BCD operation.
func daa(s *State) {
	a := s.Reg.Get8(A)
	f := s.Reg.Get8(F)

	var adjust uint8
	if f&FlagH != 0 || a&0x0F > 9 {
		adjust |= 0x06
	}
	carry := f&FlagC != 0 || a > 0x99
	if carry {
		adjust |= 0x60
	}

	var r uint8
	if f&FlagN != 0 {
		r = a - adjust
	} else {
		r = a + adjust
	}

	nf := sz53(r) | parity[r] | f&FlagN
	if carry {
		nf |= FlagC
	}
	if (a^r)&0x10 != 0 {
		nf |= FlagH
	}

	s.Reg.Set8(A, r)
	s.Reg.Set8(F, nf)
}
