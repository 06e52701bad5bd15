package rv32emu

// CLINT models the Core-Local Interruptor: a 64-bit mtime driven by an
// injected TimeSource, a 64-bit mtimecmp, and an msip word. The machine
// timer interrupt is pending whenever msip is nonzero and mtime has
// reached mtimecmp.
type CLINT struct {
	mtime    uint64
	mtimecmp uint64
	msip     uint32

	clock TimeSource
}

// NewCLINT creates a CLINT driven by the given time source.
func NewCLINT(clock TimeSource) *CLINT {
	return &CLINT{clock: clock}
}

// step advances mtime by the delta since the last step and returns
// whether the timer interrupt condition currently holds.
func (c *CLINT) step() bool {
	c.mtime += c.clock.MicrosecondsSinceLast()
	return c.pending()
}

func (c *CLINT) pending() bool {
	return c.msip != 0 && c.mtime >= c.mtimecmp
}

func (c *CLINT) read(addr uint32, w width) uint32 {
	switch addr {
	case mtimeLo:
		return uint32(c.mtime) & w.mask()
	case mtimeHi:
		return uint32(c.mtime>>32) & w.mask()
	case mtimecmpLo:
		return uint32(c.mtimecmp) & w.mask()
	case mtimecmpHi:
		return uint32(c.mtimecmp>>32) & w.mask()
	}
	return 0
}

func (c *CLINT) write(addr uint32, val uint32, w width) {
	v := val & w.mask()
	switch addr {
	case mtimeLo:
		c.mtime = c.mtime&0xFFFFFFFF00000000 | uint64(v)
	case mtimeHi:
		c.mtime = c.mtime&0x00000000FFFFFFFF | uint64(v)<<32
	case mtimecmpLo:
		c.mtimecmp = c.mtimecmp&0xFFFFFFFF00000000 | uint64(v)
	case mtimecmpHi:
		c.mtimecmp = c.mtimecmp&0x00000000FFFFFFFF | uint64(v)<<32
	}
}

// readMsip services reads to the dual-purpose syscon/msip register.
func (c *CLINT) readMsip(w width) uint32 {
	return c.msip & w.mask()
}

// writeMsip services writes to the dual-purpose syscon/msip register that
// did not match one of the recognized syscon magic values.
func (c *CLINT) writeMsip(val uint32, w width) {
	c.msip = val & w.mask()
}
