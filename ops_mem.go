package rv32emu

// execLoad implements LOAD: funct3 selects width and sign-extension.
// Address = rs1 + sext(imm12). Bus exceptions convert to their
// corresponding trap codes with mtval = the faulting address.
func (c *CPU) execLoad(ir uint32) {
	addr := c.Reg(rs1(ir)) + immI(ir)

	var v uint32
	var ok bool
	switch funct3(ir) {
	case 0b000: // LB
		v, ok = c.readMem(addr, Byte)
		v = signExtendByte(v)
	case 0b001: // LH
		v, ok = c.readMem(addr, Half)
		v = signExtendHalf(v)
	case 0b010: // LW
		v, ok = c.readMem(addr, Word)
	case 0b100: // LBU
		v, ok = c.readMem(addr, Byte)
	case 0b101: // LHU
		v, ok = c.readMem(addr, Half)
	default:
		c.raiseException(excIllegalInstruction, ir)
		return
	}
	if !ok {
		return
	}
	c.setReg(rd(ir), v)
}

// execStore implements STORE: funct3 selects width; effective address is
// rs1 + sext(S-immediate).
func (c *CPU) execStore(ir uint32) {
	addr := c.Reg(rs1(ir)) + immS(ir)
	val := c.Reg(rs2(ir))

	switch funct3(ir) {
	case 0b000: // SB
		c.writeMem(addr, val, Byte)
	case 0b001: // SH
		c.writeMem(addr, val, Half)
	case 0b010: // SW
		c.writeMem(addr, val, Word)
	default:
		c.raiseException(excIllegalInstruction, ir)
	}
}
