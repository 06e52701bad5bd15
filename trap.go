package rv32emu

// Exception codes (low half of mcause; §4.5).
const (
	excInstructionAddressMisaligned = 0
	excInstructionAccessFault       = 1
	excIllegalInstruction           = 2
	excBreakpoint                   = 3
	excLoadAddressMisaligned        = 4
	excLoadAccessFault              = 5
	excStoreAmoAddressMisaligned    = 6
	excStoreAmoAccessFault          = 7
	excEnvCallU                     = 8
	excEnvCallS                     = 9
	excEnvCallM                     = 11
	excInstructionPageFault         = 12
	excLoadPageFault                = 13
	excStoreAmoPageFault            = 15
)

// interruptBit marks an interrupt cause, distinguishing it from an
// exception code of the same low bits.
const interruptBit = 1 << 31

// causeMachineTimerInterrupt is the mcause value for a machine timer
// interrupt (§4.4 step 4): interruptBit | 7.
const causeMachineTimerInterrupt = interruptBit | 7

// raiseException records a pending exception to be taken at the end of
// the current step. value is the faulting address or instruction (0 for
// traps with no natural operand, e.g. illegal instruction/breakpoint with
// no address).
//
// The pending trap is kept as two machine words (code, value) plus an
// explicit "is one pending" flag rather than overloading zero, since
// exception code 0 (InstructionAddressMisaligned) is itself a valid,
// reachable cause.
func (c *CPU) raiseException(code uint32, value uint32) {
	c.trapPending = true
	c.trapCause = code
	c.trapValue = value
}

// raiseInterrupt records a pending interrupt. cause already has
// interruptBit set.
func (c *CPU) raiseInterrupt(cause uint32) {
	c.trapPending = true
	c.trapCause = cause
	c.trapValue = 0
}

// clearTrap clears the pending-trap scratch without taking a trap.
func (c *CPU) clearTrap() {
	c.trapPending = false
	c.trapCause = 0
	c.trapValue = 0
}

// takeTrap delivers the pending trap per §4.5: saves mepc/mcause/mtval,
// shuffles mstatus.MIE into MPIE, records the previous mode into MPP,
// switches to machine mode, and redirects pc to mtvec (treated as a
// direct, non-vectored base).
//
// Matching the source this core reproduces, the mstatus update does not
// preserve unrelated bits: mstatus becomes ((old MIE) << 4) | (MPP <<
// 11), discarding anything else that happened to be set. This is
// intentional — see the design notes on source quirks — and is safe
// because no other mstatus field is meaningful to an M-mode-only guest.
func (c *CPU) takeTrap(faultPC uint32) {
	c.mepc = faultPC
	c.mcause = c.trapCause
	c.mtval = c.trapValue

	if isFaultCause(c.trapCause) {
		logf("trap cause=0x%08x pc=0x%08x mtval=0x%08x", c.trapCause, faultPC, c.trapValue)
	}

	oldMIE := c.mstatus & mstatusMIE
	mpp := uint32(c.prevMode) << mstatusMPPShift
	c.mstatus = (oldMIE << 4) | (mpp & mstatusMPPMask)

	c.prevMode = ModeMachine
	c.pc = c.mtvec

	c.clearTrap()
}

// isFaultCause reports whether cause represents an anomalous condition
// worth a diagnostic log line, as opposed to guest-invoked control flow
// (ECALL/EBREAK/interrupts).
func isFaultCause(cause uint32) bool {
	switch cause {
	case excInstructionAddressMisaligned, excInstructionAccessFault, excIllegalInstruction,
		excLoadAddressMisaligned, excLoadAccessFault,
		excStoreAmoAddressMisaligned, excStoreAmoAccessFault:
		return true
	}
	return false
}

// busErrToLoadException converts a bus error encountered servicing a load
// into the matching architectural exception code.
func busErrToLoadException(err *BusError) uint32 {
	if err.Misaligned {
		return excLoadAddressMisaligned
	}
	return excLoadAccessFault
}

// busErrToStoreException converts a bus error encountered servicing a
// store (or AMO) into the matching architectural exception code.
func busErrToStoreException(err *BusError) uint32 {
	if err.Misaligned {
		return excStoreAmoAddressMisaligned
	}
	return excStoreAmoAccessFault
}
