package hw

/* load/store/transfer */

func LDA(c *CPU) {
	c.A = c.Read8(c.operand)
	c.P.checkNZ(c.A)
}

func LDX(c *CPU) {
	c.X = c.Read8(c.operand)
	c.P.checkNZ(c.X)
}

func LDY(c *CPU) {
	c.Y = c.Read8(c.operand)
	c.P.checkNZ(c.Y)
}

func STA(c *CPU) { c.Write8(c.operand, c.A) }
func STX(c *CPU) { c.Write8(c.operand, c.X) }
func STY(c *CPU) { c.Write8(c.operand, c.Y) }

func TAX(c *CPU) { c.X = c.A; c.P.checkNZ(c.X) }
func TAY(c *CPU) { c.Y = c.A; c.P.checkNZ(c.Y) }
func TSX(c *CPU) { c.X = c.SP; c.P.checkNZ(c.X) }
func TXA(c *CPU) { c.A = c.X; c.P.checkNZ(c.A) }
func TYA(c *CPU) { c.A = c.Y; c.P.checkNZ(c.A) }
func TXS(c *CPU) { c.SP = c.X }

/* logical */

func AND(c *CPU) {
	c.A &= c.Read8(c.operand)
	c.P.checkNZ(c.A)
}

func ORA(c *CPU) {
	c.A |= c.Read8(c.operand)
	c.P.checkNZ(c.A)
}

func EOR(c *CPU) {
	c.A ^= c.Read8(c.operand)
	c.P.checkNZ(c.A)
}

func BIT(c *CPU) {
	val := c.Read8(c.operand)
	c.P.setZ(c.A&val == 0)
	c.P.setN(val&0x80 != 0)
	c.P.setV(val&0x40 != 0)
}

/* arithmetic */

func (c *CPU) adc(val uint8) {
	sum := uint16(c.A) + uint16(val) + uint16(c.P.ibit(Carry))
	c.P.checkCV(c.A, val, sum)
	c.A = uint8(sum)
	c.P.checkNZ(c.A)
}

func ADC(c *CPU) { c.adc(c.Read8(c.operand)) }

// SBC is an addition of the one's complement of the operand: the carry acts
// as an inverted borrow.
func SBC(c *CPU) { c.adc(^c.Read8(c.operand)) }

func (c *CPU) compare(reg, val uint8) {
	c.P.setC(reg >= val)
	c.P.checkNZ(reg - val)
}

func CMP(c *CPU) { c.compare(c.A, c.Read8(c.operand)) }
func CPX(c *CPU) { c.compare(c.X, c.Read8(c.operand)) }
func CPY(c *CPU) { c.compare(c.Y, c.Read8(c.operand)) }

/* increments/decrements */

func INC(c *CPU) {
	val := c.Read8(c.operand) + 1
	c.Write8(c.operand, val)
	c.P.checkNZ(val)
}

func DEC(c *CPU) {
	val := c.Read8(c.operand) - 1
	c.Write8(c.operand, val)
	c.P.checkNZ(val)
}

func INX(c *CPU) { c.X++; c.P.checkNZ(c.X) }
func INY(c *CPU) { c.Y++; c.P.checkNZ(c.Y) }
func DEX(c *CPU) { c.X--; c.P.checkNZ(c.X) }
func DEY(c *CPU) { c.Y--; c.P.checkNZ(c.Y) }

/* shifts/rotates, on the accumulator or memory */

func (c *CPU) asl() uint8 {
	val := c.fetch()
	c.P.setC(val&0x80 != 0)
	val <<= 1
	c.store(val)
	c.P.checkNZ(val)
	return val
}

func (c *CPU) lsr() uint8 {
	val := c.fetch()
	c.P.setC(val&0x01 != 0)
	val >>= 1
	c.store(val)
	c.P.checkNZ(val)
	return val
}

func (c *CPU) rol() uint8 {
	val := c.fetch()
	carry := c.P.ibit(Carry)
	c.P.setC(val&0x80 != 0)
	val = val<<1 | carry
	c.store(val)
	c.P.checkNZ(val)
	return val
}

func (c *CPU) ror() uint8 {
	val := c.fetch()
	carry := c.P.ibit(Carry)
	c.P.setC(val&0x01 != 0)
	val = val>>1 | carry<<7
	c.store(val)
	c.P.checkNZ(val)
	return val
}

func ASL(c *CPU) { c.asl() }
func LSR(c *CPU) { c.lsr() }
func ROL(c *CPU) { c.rol() }
func ROR(c *CPU) { c.ror() }

/* flags */

func CLC(c *CPU) { c.P.setC(false) }
func CLD(c *CPU) { c.P.setD(false) }
func CLI(c *CPU) { c.P.setI(false) }
func CLV(c *CPU) { c.P.setV(false) }
func SEC(c *CPU) { c.P.setC(true) }
func SED(c *CPU) { c.P.setD(true) }
func SEI(c *CPU) { c.P.setI(true) }

/* stack */

func PHA(c *CPU) { c.push8(c.A) }

func PHP(c *CPU) { c.push8(c.P.pushed(true)) }

func PLA(c *CPU) {
	c.A = c.pull8()
	c.P.checkNZ(c.A)
}

func PLP(c *CPU) { c.P = pulled(c.pull8()) }

/* control flow */

func JMP(c *CPU) { c.PC = c.operand }

func JSR(c *CPU) {
	// push the address of the last byte of the instruction.
	c.push16(c.PC - 1)
	c.PC = c.operand
}

func RTS(c *CPU) { c.PC = c.pull16() + 1 }

func RTI(c *CPU) {
	c.P = pulled(c.pull8())
	c.PC = c.pull16()
}

func BRK(c *CPU) {
	// skip the padding byte.
	c.PC++
	c.push16(c.PC)
	c.push8(c.P.pushed(true))
	c.P.setI(true)
	c.PC = c.Read16(IRQVector)
}

// branch jumps to the operand address if cond holds, taking one more cycle,
// and another if the target lies in another page.
func (c *CPU) branch(cond bool) {
	if !cond {
		return
	}
	c.extra++
	if pageCrossed(c.PC, c.operand) {
		c.extra++
	}
	c.PC = c.operand
}

func BCC(c *CPU) { c.branch(!c.P.C()) }
func BCS(c *CPU) { c.branch(c.P.C()) }
func BNE(c *CPU) { c.branch(!c.P.Z()) }
func BEQ(c *CPU) { c.branch(c.P.Z()) }
func BPL(c *CPU) { c.branch(!c.P.N()) }
func BMI(c *CPU) { c.branch(c.P.N()) }
func BVC(c *CPU) { c.branch(!c.P.V()) }
func BVS(c *CPU) { c.branch(c.P.V()) }

func NOP(c *CPU) {}

/* unofficial opcodes */

// NOPs with an operand still perform the read.
func SKB(c *CPU) { _ = c.Read8(c.operand) }

func LAX(c *CPU) {
	c.A = c.Read8(c.operand)
	c.X = c.A
	c.P.checkNZ(c.A)
}

func SAX(c *CPU) { c.Write8(c.operand, c.A&c.X) }

func DCP(c *CPU) {
	val := c.Read8(c.operand) - 1
	c.Write8(c.operand, val)
	c.compare(c.A, val)
}

func ISB(c *CPU) {
	val := c.Read8(c.operand) + 1
	c.Write8(c.operand, val)
	c.adc(^val)
}

func SLO(c *CPU) {
	c.A |= c.asl()
	c.P.checkNZ(c.A)
}

func RLA(c *CPU) {
	c.A &= c.rol()
	c.P.checkNZ(c.A)
}

func SRE(c *CPU) {
	c.A ^= c.lsr()
	c.P.checkNZ(c.A)
}

func RRA(c *CPU) { c.adc(c.ror()) }

func ANC(c *CPU) {
	AND(c)
	c.P.setC(c.P.N())
}

func ALR(c *CPU) {
	AND(c)
	c.accmode = true
	c.lsr()
}

func ARR(c *CPU) {
	c.A = (c.A&c.Read8(c.operand))>>1 | c.P.ibit(Carry)<<7
	c.P.checkNZ(c.A)
	c.P.setC(c.A&0x40 != 0)
	c.P.setV((c.A>>6)&1 != (c.A>>5)&1)
}

func SBX(c *CPU) {
	val := c.Read8(c.operand)
	ax := c.A & c.X
	c.P.setC(ax >= val)
	c.X = ax - val
	c.P.checkNZ(c.X)
}
