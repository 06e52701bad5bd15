package rv32emu

// execJAL implements JAL: rd <- pc+4; pc <- pc + sext(imm).
func (c *CPU) execJAL(ir uint32) {
	c.setReg(rd(ir), c.pc+4)
	c.pc = c.pc + immJ(ir)
	c.jumped = true
}

// execJALR implements JALR: rd <- pc+4; pc <- (rs1 + sext(imm12)) & ~1.
func (c *CPU) execJALR(ir uint32) {
	target := (c.Reg(rs1(ir)) + immI(ir)) &^ 1
	c.setReg(rd(ir), c.pc+4)
	c.pc = target
	c.jumped = true
}

// execBranch implements BRANCH: funct3 selects the condition; target is
// pc + sext(13-bit imm) when taken. funct3 010/011 are illegal.
func (c *CPU) execBranch(ir uint32) {
	a := c.Reg(rs1(ir))
	b := c.Reg(rs2(ir))

	var taken bool
	switch funct3(ir) {
	case 0b000: // BEQ
		taken = a == b
	case 0b001: // BNE
		taken = a != b
	case 0b100: // BLT
		taken = int32(a) < int32(b)
	case 0b101: // BGE
		taken = int32(a) >= int32(b)
	case 0b110: // BLTU
		taken = a < b
	case 0b111: // BGEU
		taken = a >= b
	default:
		c.raiseException(excIllegalInstruction, ir)
		return
	}

	if taken {
		c.pc = c.pc + immB(ir)
		c.jumped = true
	}
}
