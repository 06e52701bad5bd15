package rv32emu

// 7-bit opcode field values (ir bits 6:0).
const (
	opLUI    = 0b0110111
	opAUIPC  = 0b0010111
	opJAL    = 0b1101111
	opJALR   = 0b1100111
	opBRANCH = 0b1100011
	opLOAD   = 0b0000011
	opSTORE  = 0b0100011
	opOPIMM  = 0b0010011
	opOP     = 0b0110011
	opFENCE  = 0b0001111
	opSYSTEM = 0b1110011
	opAMO    = 0b0101111
)

func opcode(ir uint32) uint32  { return ir & 0x7F }
func rd(ir uint32) int         { return int((ir >> 7) & 0x1F) }
func funct3(ir uint32) uint32  { return (ir >> 12) & 0x7 }
func rs1(ir uint32) int        { return int((ir >> 15) & 0x1F) }
func rs2(ir uint32) int        { return int((ir >> 20) & 0x1F) }
func funct7(ir uint32) uint32  { return (ir >> 25) & 0x7F }

func immI(ir uint32) uint32 {
	return signExtend(ir>>20, 12)
}

func immS(ir uint32) uint32 {
	v := ((ir >> 25) << 5) | ((ir >> 7) & 0x1F)
	return signExtend(v, 12)
}

func immB(ir uint32) uint32 {
	v := ((ir >> 31) << 12) | (((ir >> 7) & 1) << 11) |
		(((ir >> 25) & 0x3F) << 5) | (((ir >> 8) & 0xF) << 1)
	return signExtend(v, 13)
}

func immU(ir uint32) uint32 {
	return ir & 0xFFFFF000
}

func immJ(ir uint32) uint32 {
	v := ((ir >> 31) << 20) | (((ir >> 12) & 0xFF) << 12) |
		(((ir >> 20) & 1) << 11) | (((ir >> 21) & 0x3FF) << 1)
	return signExtend(v, 21)
}

// execute decodes and runs one instruction. It never advances pc itself
// (Step does that once execute returns, unless a trap was raised).
func (c *CPU) execute(ir uint32) {
	switch opcode(ir) {
	case opLUI:
		c.setReg(rd(ir), immU(ir))
	case opAUIPC:
		c.setReg(rd(ir), c.pc+immU(ir))
	case opJAL:
		c.execJAL(ir)
	case opJALR:
		c.execJALR(ir)
	case opBRANCH:
		c.execBranch(ir)
	case opLOAD:
		c.execLoad(ir)
	case opSTORE:
		c.execStore(ir)
	case opOPIMM:
		c.execOpImm(ir)
	case opOP:
		if funct7(ir)&1 != 0 {
			c.execMulDiv(ir)
		} else {
			c.execOp(ir)
		}
	case opFENCE:
		// no-op: no caches or reordering to fence.
	case opAMO:
		c.execAMO(ir)
	case opSYSTEM:
		c.execSystem(ir)
	default:
		c.raiseException(excIllegalInstruction, ir)
	}
}
