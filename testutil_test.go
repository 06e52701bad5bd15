package rv32emu

import "testing"

// testBus is a flat RAM-only bus for CPU unit tests: addresses are
// treated as direct offsets with no MMIO window, which keeps ALU/branch/
// load-store tests free of address-map arithmetic.
type testBus struct {
	mem  [1 << 20]byte
	mtip bool
}

func (b *testBus) Read8(addr uint32) (uint32, error) {
	if int(addr) >= len(b.mem) {
		return 0, &BusError{Addr: addr}
	}
	return uint32(b.mem[addr]), nil
}

func (b *testBus) Read16(addr uint32) (uint32, error) {
	if addr&1 != 0 {
		return 0, &BusError{Addr: addr, Misaligned: true}
	}
	if int(addr)+2 > len(b.mem) {
		return 0, &BusError{Addr: addr}
	}
	return uint32(b.mem[addr]) | uint32(b.mem[addr+1])<<8, nil
}

func (b *testBus) Read32(addr uint32) (uint32, error) {
	if addr&3 != 0 {
		return 0, &BusError{Addr: addr, Misaligned: true}
	}
	if int(addr)+4 > len(b.mem) {
		return 0, &BusError{Addr: addr}
	}
	return uint32(b.mem[addr]) | uint32(b.mem[addr+1])<<8 |
		uint32(b.mem[addr+2])<<16 | uint32(b.mem[addr+3])<<24, nil
}

func (b *testBus) Write8(addr uint32, val uint32) error {
	if int(addr) >= len(b.mem) {
		return &BusError{Addr: addr}
	}
	b.mem[addr] = byte(val)
	return nil
}

func (b *testBus) Write16(addr uint32, val uint32) error {
	if addr&1 != 0 {
		return &BusError{Addr: addr, Misaligned: true}
	}
	if int(addr)+2 > len(b.mem) {
		return &BusError{Addr: addr}
	}
	b.mem[addr] = byte(val)
	b.mem[addr+1] = byte(val >> 8)
	return nil
}

func (b *testBus) Write32(addr uint32, val uint32) error {
	if addr&3 != 0 {
		return &BusError{Addr: addr, Misaligned: true}
	}
	if int(addr)+4 > len(b.mem) {
		return &BusError{Addr: addr}
	}
	b.mem[addr] = byte(val)
	b.mem[addr+1] = byte(val >> 8)
	b.mem[addr+2] = byte(val >> 16)
	b.mem[addr+3] = byte(val >> 24)
	return nil
}

func (b *testBus) Step() bool { return b.mtip }

// loadProgram writes a little-endian instruction stream to addr 0.
func loadProgram(b *testBus, words []uint32) {
	for i, w := range words {
		addr := uint32(i * 4)
		b.mem[addr] = byte(w)
		b.mem[addr+1] = byte(w >> 8)
		b.mem[addr+2] = byte(w >> 16)
		b.mem[addr+3] = byte(w >> 24)
	}
}

// newTestCPU creates a CPU over a fresh testBus with the given program
// loaded at address 0.
func newTestCPU(t *testing.T, words []uint32) (*CPU, *testBus) {
	t.Helper()
	bus := &testBus{}
	loadProgram(bus, words)
	return New(bus), bus
}

// stubSerial is a Serial endpoint that never has input available, for
// tests that exercise the real address map but don't care about the
// console.
type stubSerial struct{}

func (stubSerial) Read(addr16 uint16) uint8 { return 0 }
func (stubSerial) Write(addr16 uint16, val uint32) {}

// stubClock is a TimeSource that advances by a fixed delta each call.
type stubClock struct{ deltaUS uint64 }

func (c stubClock) MicrosecondsSinceLast() uint64 { return c.deltaUS }

// newSystemTestCPU builds a real SystemBus (RAM + CLINT + stub serial)
// with words loaded at the RAM base, and a CPU booted per §6's register
// convention. Used by tests that assert on physical addresses.
func newSystemTestCPU(t *testing.T, words []uint32) (*CPU, *SystemBus) {
	t.Helper()
	bus := NewSystemBus(1<<20, NewCLINT(stubClock{}), stubSerial{})
	ram := bus.RAM()
	for i, w := range words {
		off := i * 4
		ram[off] = byte(w)
		ram[off+1] = byte(w >> 8)
		ram[off+2] = byte(w >> 16)
		ram[off+3] = byte(w >> 24)
	}
	cpu := New(bus)
	cpu.SetBootRegisters(0, 0, ramBase)
	return cpu, bus
}
