package hw

// P is the processor status register.
type P uint8

const (
	Carry P = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Reserved // always 1 when pushed
	Overflow
	Negative
)

func (p P) C() bool { return p&Carry != 0 }
func (p P) Z() bool { return p&Zero != 0 }
func (p P) I() bool { return p&Interrupt != 0 }
func (p P) D() bool { return p&Decimal != 0 }
func (p P) B() bool { return p&Break != 0 }
func (p P) U() bool { return p&Reserved != 0 }
func (p P) V() bool { return p&Overflow != 0 }
func (p P) N() bool { return p&Negative != 0 }

func (p *P) set(flag P, v bool) {
	if v {
		*p |= flag
	} else {
		*p &^= flag
	}
}

func (p *P) setC(v bool) { p.set(Carry, v) }
func (p *P) setZ(v bool) { p.set(Zero, v) }
func (p *P) setI(v bool) { p.set(Interrupt, v) }
func (p *P) setD(v bool) { p.set(Decimal, v) }
func (p *P) setV(v bool) { p.set(Overflow, v) }
func (p *P) setN(v bool) { p.set(Negative, v) }

// ibit returns the flag value as 0 or 1.
func (p P) ibit(flag P) uint8 {
	return b2u8(p&flag != 0)
}

func (p *P) checkNZ(v uint8) {
	p.setN(v&0x80 != 0)
	p.setZ(v == 0)
}

func (p *P) checkCV(x, y uint8, sum uint16) {
	// forward carry or unsigned overflow.
	p.setC(sum > 0xFF)

	// signed overflow, can only happen if the sign of the sum differs
	// from that of both operands.
	v := (uint16(x) ^ sum) & (uint16(y) ^ sum) & 0x80
	p.setV(v != 0)
}

// pushed returns the status as it is pushed on the stack, with the reserved
// bit set and the break flag set or cleared.
func (p P) pushed(brk bool) uint8 {
	v := p | Reserved
	if brk {
		v |= Break
	} else {
		v &^= Break
	}
	return uint8(v)
}

// pulled returns the value of the status register restored from a byte
// pulled from the stack. B only exists on the stack.
func pulled(val uint8) P {
	return (P(val) &^ Break) | Reserved
}

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := 0; i < 8; i++ {
		ibit := (uint8(p) & (1 << (7 - i))) >> (7 - i)
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}
