// Package rv32emu implements a single-hart RV32IMA emulator capable of
// booting a small Linux kernel.
//
// The core models:
//   - 32 general-purpose registers plus pc, with x0 hardwired to zero
//   - the Zicsr subset of control and status registers needed for
//     machine-mode trap handling
//   - exception and timer-interrupt delivery
//   - the LR.W/SC.W reservation pair
//   - a memory-mapped bus dispatching to RAM, a CLINT, and a serial console
//
// S-mode/U-mode handling beyond what a machine-mode-only kernel needs, the
// MMU, floating point, compressed instructions, multi-hart execution, PMP
// and debug mode are not implemented.
package rv32emu

import "log"

func logf(format string, args ...any) {
	log.Printf("[rv32] "+format, args...)
}
