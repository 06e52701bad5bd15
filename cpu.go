package rv32emu

// CPU is the RV32IMA interpreter: 32 general registers, pc, a free-running
// cycle counter, the machine-mode CSR subset, and the LR/SC reservation.
type CPU struct {
	x  [32]uint32
	pc uint32

	cycles uint64

	mstatus, mscratch, mtvec, mie, mip, mepc, mtval, mcause uint32

	prevMode PrivilegeMode
	wfi      bool

	// Pending-trap scratch, raised by instruction execution and consumed
	// by Step at the end of each step. See trap.go.
	trapPending bool
	trapCause   uint32
	trapValue   uint32

	// Reservation set (§3): the RISC-V spec permits a single reservation
	// per hart, so one (addr, value) pair is sufficient.
	reserveValid bool
	reserveAddr  uint32
	reserveValue uint32

	// jumped is set by JAL/JALR/taken-BRANCH/MRET to tell Step that pc
	// was already set explicitly and must not also be advanced by 4.
	jumped bool

	bus Bus
}

// New creates a CPU bound to the given bus, with previous-mode Machine
// and all other architectural state zeroed.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus, prevMode: ModeMachine}
	return c
}

// Reset clears all architectural state and rebinds the bus, used by the
// driver loop to service a guest-requested reboot while keeping the RAM
// image.
func (c *CPU) Reset(bus Bus) {
	*c = CPU{bus: bus, prevMode: ModeMachine}
}

// SetBootRegisters sets the boot-time register convention (§6): a0 = hart
// id, a1 = dtb physical address (0 if none), pc = entry point.
func (c *CPU) SetBootRegisters(hartID, dtbAddr, entry uint32) {
	c.x[10] = hartID // a0
	c.x[11] = dtbAddr // a1
	c.pc = entry
}

// Reg returns the value of general register i (0-31). x0 always reads 0.
func (c *CPU) Reg(i int) uint32 {
	return c.x[i]
}

// setReg writes val to register i, silently discarding writes to x0.
func (c *CPU) setReg(i int, val uint32) {
	if i != 0 {
		c.x[i] = val
	}
}

// PC returns the current program counter.
func (c *CPU) PC() uint32 { return c.pc }

// Cycles returns the free-running cycle counter.
func (c *CPU) Cycles() uint64 { return c.cycles }

// AddCycle credits one cycle without executing an instruction. Used by
// the driver loop while the hart is idle (WFI), since Step itself does
// not advance the cycle counter on an Idle result.
func (c *CPU) AddCycle() { c.cycles++ }

// StepResult indicates what a call to Step actually did.
type StepResult int

const (
	Active StepResult = iota
	Idle
)

// Step executes one CPU cycle per §4.4:
//  1. Advance the bus (CLINT tick, MTIP refresh).
//  2. Clear WFI if MTIP is now asserted.
//  3. Remain Idle if WFI is still set.
//  4. Deliver a pending machine timer interrupt if enabled.
//  5. Otherwise fetch, decode, execute one instruction and advance pc.
func (c *CPU) Step() StepResult {
	mtip := c.bus.Step()
	if mtip {
		c.mip |= mipMTIP
	} else {
		c.mip &^= mipMTIP
	}

	if mtip {
		c.wfi = false
	}
	if c.wfi {
		return Idle
	}

	if mtip && c.mie&mipMTIP != 0 && c.mstatus&mstatusMIE != 0 {
		c.raiseInterrupt(causeMachineTimerInterrupt)
		c.takeTrap(c.pc)
		return Active
	}

	c.cycles++

	faultPC := c.pc
	ir, err := c.fetch(c.pc)
	if err != nil {
		c.raiseException(excInstructionAddressMisaligned, faultPC)
		c.takeTrap(faultPC)
		return Active
	}

	c.jumped = false
	c.execute(ir)

	if c.trapPending {
		c.takeTrap(faultPC)
	} else if !c.jumped {
		c.pc += 4
	}
	return Active
}

// fetch reads a 32-bit instruction word at addr. Fetches must be
// 4-byte aligned; compressed instructions are not supported.
func (c *CPU) fetch(addr uint32) (uint32, error) {
	if addr&3 != 0 {
		return 0, &BusError{Addr: addr, Misaligned: true}
	}
	return c.bus.Read32(addr)
}

// readMem performs a width-sized load at addr, raising the matching
// architectural exception on a bus error.
func (c *CPU) readMem(addr uint32, w width) (uint32, bool) {
	var v uint32
	var err error
	switch w {
	case Byte:
		v, err = c.bus.Read8(addr)
	case Half:
		v, err = c.bus.Read16(addr)
	case Word:
		v, err = c.bus.Read32(addr)
	}
	if err != nil {
		if be, ok := err.(*BusError); ok {
			c.raiseException(busErrToLoadException(be), addr)
		} else {
			c.raiseException(excLoadAccessFault, addr)
		}
		return 0, false
	}
	return v, true
}

// writeMem performs a width-sized store at addr, raising the matching
// architectural exception on a bus error.
func (c *CPU) writeMem(addr uint32, val uint32, w width) bool {
	var err error
	switch w {
	case Byte:
		err = c.bus.Write8(addr, val)
	case Half:
		err = c.bus.Write16(addr, val)
	case Word:
		err = c.bus.Write32(addr, val)
	}
	if err != nil {
		if be, ok := err.(*BusError); ok {
			c.raiseException(busErrToStoreException(be), addr)
		} else {
			c.raiseException(excStoreAmoAccessFault, addr)
		}
		return false
	}
	// Any successful store invalidates a reservation on the same word,
	// matching the "intervening store from any path" requirement (§8).
	if c.reserveValid && (addr&^3) == (c.reserveAddr&^3) {
		c.reserveValid = false
	}
	return true
}
