package z80

import (
	"testing"
)

// ram is a trivial 64K memory used by the tests in this package.
type ram [65536]uint8

// Get returns the byte at addr.
func (r *ram) Get(addr uint16) uint8 {
	return r[addr]
}

// Set stores a byte at addr.
func (r *ram) Set(addr uint16, value uint8) {
	r[addr] = value
}

// TestRegisterPairs ensures a pair always equals high*256+low of its
// halves, in both directions.
func TestRegisterPairs(t *testing.T) {
	var reg Registers

	reg.Set8(B, 0x12)
	reg.Set8(C, 0x34)
	if reg.Get16(BC) != 0x1234 {
		t.Fatalf("BC composed badly: got 0x%04X", reg.Get16(BC))
	}

	reg.Set16(DE, 0xABCD)
	if reg.Get8(D) != 0xAB || reg.Get8(E) != 0xCD {
		t.Fatalf("DE decomposed badly: D=0x%02X E=0x%02X",
			reg.Get8(D), reg.Get8(E))
	}

	reg.Set16(IX, 0xBEEF)
	if reg.Get8(IXH) != 0xBE || reg.Get8(IXL) != 0xEF {
		t.Fatalf("IX halves wrong: IXH=0x%02X IXL=0x%02X",
			reg.Get8(IXH), reg.Get8(IXL))
	}

	reg.Set16(SP, 0xFFFE)
	if reg.SP() != 0xFFFE {
		t.Fatalf("SP wrong: got 0x%04X", reg.SP())
	}
}

// TestHalfRegisterAliasing checks that 8-bit access to H and L is
// redirected to the halves of the selected index register, and that
// the literal storage reappears, untouched, when the context is
// reset.
func TestHalfRegisterAliasing(t *testing.T) {
	mem := new(ram)
	s := NewState(mem, nil)

	s.Reg.Set16(HL, 0x1122)
	s.Reg.Set16(IX, 0x3344)
	s.Reg.Set16(IY, 0x5566)

	tests := []struct {
		index  Reg16
		hi, lo uint8
	}{
		{IX, 0x33, 0x44},
		{IY, 0x55, 0x66},
	}

	for _, tc := range tests {
		s.SetIndex(tc.index, 0)

		if s.GetReg(H) != tc.hi || s.GetReg(L) != tc.lo {
			t.Fatalf("index %v: H/L read 0x%02X/0x%02X, want 0x%02X/0x%02X",
				tc.index, s.GetReg(H), s.GetReg(L), tc.hi, tc.lo)
		}

		// Other 8-bit registers are unaffected by the context.
		s.Reg.Set8(B, 0x99)
		if s.GetReg(B) != 0x99 {
			t.Fatalf("index %v: B was redirected", tc.index)
		}

		// Writes route to the index register, not to H/L.
		s.SetReg(H, 0xAA)
		s.SetReg(L, 0xBB)
		if s.Reg.Get16(tc.index) != 0xAABB {
			t.Fatalf("index %v: write missed: got 0x%04X",
				tc.index, s.Reg.Get16(tc.index))
		}

		// 16-bit access to HL is redirected wholesale.
		if s.GetReg16(HL) != 0xAABB {
			t.Fatalf("index %v: HL pair read 0x%04X, want 0xAABB",
				tc.index, s.GetReg16(HL))
		}
		if s.GetReg16(DE) != s.Reg.Get16(DE) {
			t.Fatalf("index %v: DE pair was redirected", tc.index)
		}

		s.ResetIndex()
	}

	// The literal H/L cells were never shared with the index
	// registers.
	if s.GetReg(H) != 0x11 || s.GetReg(L) != 0x22 {
		t.Fatalf("literal HL corrupted: got 0x%02X%02X",
			s.GetReg(H), s.GetReg(L))
	}
}

// TestIndirectAccess checks the indirect pseudo-register against a
// direct memory access, with and without an index context.
func TestIndirectAccess(t *testing.T) {
	mem := new(ram)
	s := NewState(mem, nil)

	// No context: (HL) is just memory at HL.
	s.Reg.Set16(HL, 0x2000)
	mem.Set(0x2000, 0x42)
	if s.GetReg(Indirect) != 0x42 {
		t.Fatalf("(HL) read wrong: got 0x%02X", s.GetReg(Indirect))
	}
	s.SetReg(Indirect, 0x24)
	if mem.Get(0x2000) != 0x24 {
		t.Fatalf("(HL) write missed")
	}

	// IX plus displacement.
	s.Reg.Set16(IX, 0x3000)
	s.SetIndex(IX, 5)
	mem.Set(0x3005, 0x55)
	if s.GetReg(Indirect) != 0x55 {
		t.Fatalf("(IX+5) read wrong: got 0x%02X", s.GetReg(Indirect))
	}

	// Negative displacement.
	s.SetIndex(IX, -1)
	mem.Set(0x2FFF, 0x66)
	if s.GetReg(Indirect) != 0x66 {
		t.Fatalf("(IX-1) read wrong: got 0x%02X", s.GetReg(Indirect))
	}

	// Addressing arithmetic wraps modulo 65536.
	s.Reg.Set16(IX, 0xFFFE)
	s.SetIndex(IX, 4)
	mem.Set(0x0002, 0x77)
	if s.GetReg(Indirect) != 0x77 {
		t.Fatalf("wrapped indirect read wrong: got 0x%02X",
			s.GetReg(Indirect))
	}
}

// TestPushPop checks that pop is the exact inverse of push.
func TestPushPop(t *testing.T) {
	mem := new(ram)
	s := NewState(mem, nil)

	for _, v := range []uint16{0x0000, 0x0001, 0x1234, 0x8000, 0xFFFF} {
		s.Reg.SetSP(0xFFFE)

		s.Push(v)

		// Low byte ends up at the lower address.
		if mem.Get(0xFFFC) != uint8(v) || mem.Get(0xFFFD) != uint8(v>>8) {
			t.Fatalf("push 0x%04X: bad layout: %02X %02X",
				v, mem.Get(0xFFFC), mem.Get(0xFFFD))
		}

		if got := s.Pop(); got != v {
			t.Fatalf("pop returned 0x%04X, want 0x%04X", got, v)
		}
		if s.Reg.SP() != 0xFFFE {
			t.Fatalf("push 0x%04X: SP not restored: 0x%04X", v, s.Reg.SP())
		}
	}
}

// TestFetchWraps fetches a byte with the program counter at the top
// of the address space, which must wrap to zero.
func TestFetchWraps(t *testing.T) {
	mem := new(ram)
	s := NewState(mem, nil)

	mem.Set(0xFFFF, 0xAB)
	s.Reg.SetPC(0xFFFF)

	if got := s.FetchByte(); got != 0xAB {
		t.Fatalf("fetch returned 0x%02X, want 0xAB", got)
	}
	if s.Reg.PC() != 0x0000 {
		t.Fatalf("program counter did not wrap: 0x%04X", s.Reg.PC())
	}
}

// TestFetchWord checks the little-endian 16-bit immediate fetch.
func TestFetchWord(t *testing.T) {
	mem := new(ram)
	s := NewState(mem, nil)

	mem.Set(0x0100, 0x34)
	mem.Set(0x0101, 0x12)
	s.Reg.SetPC(0x0100)

	if got := s.FetchWord(); got != 0x1234 {
		t.Fatalf("fetch returned 0x%04X, want 0x1234", got)
	}
	if s.Reg.PC() != 0x0102 {
		t.Fatalf("program counter advanced to 0x%04X, want 0x0102",
			s.Reg.PC())
	}
}

// statePorts records port traffic, and demonstrates that a handler
// can see the execution state which invoked it.
type statePorts struct {
	lastPort  uint16
	lastValue uint8
	lastA     uint8
}

func (p *statePorts) In(s *State, port uint16) uint8 {
	p.lastPort = port
	p.lastA = s.Reg.Get8(A)
	return 0x7F
}

func (p *statePorts) Out(s *State, port uint16, value uint8) {
	p.lastPort = port
	p.lastValue = value
	p.lastA = s.Reg.Get8(A)
}

// TestPortCapability ensures port access passes the state through to
// the shared handler.
func TestPortCapability(t *testing.T) {
	mem := new(ram)
	ports := &statePorts{}
	s := NewState(mem, ports)

	s.Reg.Set8(A, 0x42)
	s.PortOut(0x00FF, 0x10)
	if ports.lastPort != 0x00FF || ports.lastValue != 0x10 {
		t.Fatalf("port write not delivered")
	}
	if ports.lastA != 0x42 {
		t.Fatalf("handler could not observe registers: A=0x%02X",
			ports.lastA)
	}

	if got := s.PortIn(0x0001); got != 0x7F {
		t.Fatalf("port read returned 0x%02X, want 0x7F", got)
	}
}
