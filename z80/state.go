package z80

// Memory is the interface the execution state uses to reach the guest
// address space.  All addresses are 16-bit and arithmetic on them
// wraps; there is no such thing as an out-of-range access.
type Memory interface {
	// Get returns the byte at the given address.
	Get(addr uint16) uint8

	// Set stores a byte at the given address.
	Set(addr uint16, value uint8)
}

// PortHandler services accesses to the separate I/O port address
// space.
//
// The full execution state is passed to each call, which is how our
// host-implemented services are able to read and update the guest
// registers, and guest memory, while a port access is being serviced.
// The handler is lent for the duration of a single call, and never
// held across instructions.
type PortHandler interface {
	// In returns the byte read from the given port.
	In(s *State, port uint16) uint8

	// Out writes a byte to the given port.
	Out(s *State, port uint16, value uint8)
}

// State couples the register file with the address space, and carries
// the addressing-mode context which instruction decoding threads
// between the prefix bytes and the register accesses.
type State struct {
	// Reg is the register file.
	Reg Registers

	// Mem is the 64K guest memory.  It is exclusively owned by
	// this state, and only ever touched from the execution thread.
	Mem Memory

	// Ports handles accesses to the port address space.
	Ports PortHandler

	// Cycles counts executed instructions.  It only ever
	// increases; we make no attempt at cycle-accurate timing.
	Cycles uint64

	// Halted is set when a HALT instruction is executed.
	Halted bool

	// index records which 16-bit register "(HL)" and the H/L
	// halves currently resolve through: HL itself, or IX/IY when
	// an index-prefix is active.
	index Reg16

	// displacement is the signed offset applied when index is one
	// of the index registers, for the (IX+d)/(IY+d) forms.
	displacement int8
}

// NewState returns an execution state wired to the given memory and
// port handler.
func NewState(mem Memory, ports PortHandler) *State {
	return &State{
		Mem:   mem,
		Ports: ports,
		index: HL,
	}
}

// SetIndex selects the addressing-mode context: the register that
// "(HL)" and the H/L halves resolve through, and the displacement
// added when forming an indirect address.
//
// The decoder calls this when it sees an index-prefix, and is
// responsible for restoring the default before the instruction
// finishes.
func (s *State) SetIndex(rr Reg16, displacement int8) {
	s.index = rr
	s.displacement = displacement
}

// ResetIndex restores the default addressing-mode context, making the
// true H and L storage visible again.
func (s *State) ResetIndex() {
	s.index = HL
	s.displacement = 0
}

// Indexed reports whether an index register is currently selected.
func (s *State) Indexed() bool {
	return s.index != HL
}

// PeekPC returns the byte at the program counter, without advancing.
func (s *State) PeekPC() uint8 {
	return s.Mem.Get(s.Reg.PC())
}

// FetchByte returns the byte at the program counter and advances the
// counter by one, wrapping 0xFFFF to 0x0000.
func (s *State) FetchByte() uint8 {
	pc := s.Reg.PC()
	value := s.Mem.Get(pc)
	s.Reg.SetPC(pc + 1)
	return value
}

// FetchWord returns the two bytes at the program counter as a
// little-endian 16-bit value, advancing the counter by two.
func (s *State) FetchWord() uint16 {
	value := uint16(s.FetchByte())
	value |= uint16(s.FetchByte()) << 8
	return value
}

// Push stores a 16-bit value on the stack.  The stack grows
// downwards, and the low byte ends up at the lower address.
func (s *State) Push(value uint16) {
	sp := s.Reg.SP()

	sp--
	s.Mem.Set(sp, uint8(value>>8))

	sp--
	s.Mem.Set(sp, uint8(value))

	s.Reg.SetSP(sp)
}

// Pop removes and returns the 16-bit value on top of the stack.  It
// is the exact inverse of Push.
func (s *State) Pop() uint16 {
	sp := s.Reg.SP()

	lo := s.Mem.Get(sp)
	sp++

	hi := s.Mem.Get(sp)
	sp++

	s.Reg.SetSP(sp)
	return uint16(hi)<<8 | uint16(lo)
}

// indexAddress forms the effective address of the indirect
// pseudo-register: the selected register's value plus the signed
// displacement, wrapping modulo 65536.
func (s *State) indexAddress() uint16 {
	return s.Reg.Get16(s.index) + uint16(int16(s.displacement))
}

// translate redirects H and L to the halves of the selected index
// register, when one is active.  All other registers pass through
// untouched.
func (s *State) translate(r Reg8) Reg8 {
	switch s.index {
	case IX:
		switch r {
		case H:
			return IXH
		case L:
			return IXL
		}
	case IY:
		switch r {
		case H:
			return IYH
		case L:
			return IYL
		}
	}
	return r
}

// GetReg reads an 8-bit register through the addressing-mode context:
// the Indirect pseudo-register reads guest memory, and H/L are
// redirected when an index register is selected.
func (s *State) GetReg(r Reg8) uint8 {
	if r == Indirect {
		return s.Mem.Get(s.indexAddress())
	}
	return s.Reg.Get8(s.translate(r))
}

// SetReg writes an 8-bit register through the addressing-mode
// context.
func (s *State) SetReg(r Reg8, value uint8) {
	if r == Indirect {
		s.Mem.Set(s.indexAddress(), value)
		return
	}
	s.Reg.Set8(s.translate(r), value)
}

// GetReg16 reads a 16-bit register.  HL is redirected wholesale to
// whichever register the context selects; no other pair is affected.
func (s *State) GetReg16(rr Reg16) uint16 {
	if rr == HL {
		return s.Reg.Get16(s.index)
	}
	return s.Reg.Get16(rr)
}

// SetReg16 writes a 16-bit register, with the same redirection rule
// as GetReg16.
func (s *State) SetReg16(rr Reg16, value uint16) {
	if rr == HL {
		s.Reg.Set16(s.index, value)
		return
	}
	s.Reg.Set16(rr, value)
}

// PortIn reads a byte from the port address space.
func (s *State) PortIn(port uint16) uint8 {
	if s.Ports == nil {
		return 0xFF
	}
	return s.Ports.In(s, port)
}

// PortOut writes a byte to the port address space.
func (s *State) PortOut(port uint16, value uint8) {
	if s.Ports == nil {
		return
	}
	s.Ports.Out(s, port, value)
}
