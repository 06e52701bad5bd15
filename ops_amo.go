package rv32emu

// funct5 values for the RV32A opcode group (ir bits 31:27).
const (
	amoADD    = 0b00000
	amoSWAP   = 0b00001
	amoLR     = 0b00010
	amoSC     = 0b00011
	amoXOR    = 0b00100
	amoOR     = 0b01000
	amoAND    = 0b01100
	amoMIN    = 0b10000
	amoMAX    = 0b10100
	amoMINU   = 0b11000
	amoMAXU   = 0b11100
)

// readMemStoreAmo loads a word, raising Store/AMO exception codes on a
// bus error (the read half of an AMO is classified as Store/AMO per the
// RISC-V privileged cause table, unlike a plain LR.W load).
func (c *CPU) readMemStoreAmo(addr uint32) (uint32, bool) {
	v, err := c.bus.Read32(addr)
	if err != nil {
		if be, ok := err.(*BusError); ok {
			c.raiseException(busErrToStoreException(be), addr)
		} else {
			c.raiseException(excStoreAmoAccessFault, addr)
		}
		return 0, false
	}
	return v, true
}

// execAMO implements RV32A: every variant loads the word at rs1,
// computes a new value, writes it back (except LR.W), and places the
// pre-value in rd.
func (c *CPU) execAMO(ir uint32) {
	addr := c.Reg(rs1(ir))
	f5 := (ir >> 27) & 0x1F

	if f5 == amoLR {
		v, ok := c.readMem(addr, Word)
		if !ok {
			return
		}
		c.reserveValid = true
		c.reserveAddr = addr
		c.reserveValue = v
		c.setReg(rd(ir), v)
		return
	}

	if f5 == amoSC {
		c.execSC(ir, addr)
		return
	}

	old, ok := c.readMemStoreAmo(addr)
	if !ok {
		return
	}
	b := c.Reg(rs2(ir))

	var newVal uint32
	switch f5 {
	case amoADD:
		newVal = old + b
	case amoSWAP:
		newVal = b
	case amoXOR:
		newVal = old ^ b
	case amoOR:
		newVal = old | b
	case amoAND:
		newVal = old & b
	case amoMIN:
		if int32(old) < int32(b) {
			newVal = old
		} else {
			newVal = b
		}
	case amoMAX:
		if int32(old) > int32(b) {
			newVal = old
		} else {
			newVal = b
		}
	case amoMINU:
		if old < b {
			newVal = old
		} else {
			newVal = b
		}
	case amoMAXU:
		if old > b {
			newVal = old
		} else {
			newVal = b
		}
	default:
		c.raiseException(excIllegalInstruction, ir)
		return
	}

	if !c.writeMem(addr, newVal, Word) {
		return
	}
	c.setReg(rd(ir), old)
}

// execSC implements SC.W: succeeds (writes 0 to rd) iff a reservation
// exists for addr and the current memory value still equals the value
// reserved by LR.W; otherwise rd <- 1 and no store occurs. The
// reservation for this address is cleared either way.
func (c *CPU) execSC(ir uint32, addr uint32) {
	match := c.reserveValid && c.reserveAddr == addr
	c.reserveValid = false

	if !match {
		c.setReg(rd(ir), 1)
		return
	}

	cur, ok := c.readMemStoreAmo(addr)
	if !ok {
		return
	}
	if cur != c.reserveValue {
		c.setReg(rd(ir), 1)
		return
	}

	if !c.writeMem(addr, c.Reg(rs2(ir)), Word) {
		return
	}
	c.setReg(rd(ir), 0)
}
