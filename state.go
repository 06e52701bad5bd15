package rv32emu

import (
	"encoding/binary"
	"errors"
)

// stateSerializeVersion is incremented whenever the binary layout changes.
const stateSerializeVersion = 1

// stateSerializeSize is the number of bytes produced by CPU.Serialize.
// Bus/RAM contents are not included; snapshotting RAM is the launcher's
// concern.
const stateSerializeSize = 193

// SerializeSize returns the number of bytes needed for Serialize.
func (c *CPU) SerializeSize() int { return stateSerializeSize }

// Serialize writes the full architectural CPU state into buf, which must
// be at least SerializeSize() bytes.
func (c *CPU) Serialize(buf []byte) error {
	if len(buf) < stateSerializeSize {
		return errors.New("rv32emu: serialize buffer too small")
	}

	buf[0] = stateSerializeVersion
	be := binary.BigEndian
	off := 1

	for i := 0; i < 32; i++ {
		be.PutUint32(buf[off:], c.x[i])
		off += 4
	}

	be.PutUint32(buf[off:], c.pc)
	off += 4
	be.PutUint64(buf[off:], c.cycles)
	off += 8

	for _, v := range []uint32{c.mstatus, c.mscratch, c.mtvec, c.mie, c.mip, c.mepc, c.mtval, c.mcause} {
		be.PutUint32(buf[off:], v)
		off += 4
	}

	buf[off] = byte(c.prevMode)
	off++
	buf[off] = boolByte(c.wfi)
	off++
	buf[off] = boolByte(c.trapPending)
	off++
	be.PutUint32(buf[off:], c.trapCause)
	off += 4
	be.PutUint32(buf[off:], c.trapValue)
	off += 4

	buf[off] = boolByte(c.reserveValid)
	off++
	be.PutUint32(buf[off:], c.reserveAddr)
	off += 4
	be.PutUint32(buf[off:], c.reserveValue)

	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Deserialize restores architectural CPU state from buf. The bus is left
// unchanged; callers that reconstruct a CPU entirely (e.g. on a guest
// reboot) should use New/Reset instead.
func (c *CPU) Deserialize(buf []byte) error {
	if len(buf) < stateSerializeSize {
		return errors.New("rv32emu: deserialize buffer too small")
	}
	if buf[0] != stateSerializeVersion {
		return errors.New("rv32emu: unsupported snapshot version")
	}

	be := binary.BigEndian
	off := 1

	for i := 0; i < 32; i++ {
		c.x[i] = be.Uint32(buf[off:])
		off += 4
	}

	c.pc = be.Uint32(buf[off:])
	off += 4
	c.cycles = be.Uint64(buf[off:])
	off += 8

	fields := []*uint32{&c.mstatus, &c.mscratch, &c.mtvec, &c.mie, &c.mip, &c.mepc, &c.mtval, &c.mcause}
	for _, f := range fields {
		*f = be.Uint32(buf[off:])
		off += 4
	}

	c.prevMode = PrivilegeMode(buf[off])
	off++
	c.wfi = buf[off] != 0
	off++
	c.trapPending = buf[off] != 0
	off++
	c.trapCause = be.Uint32(buf[off:])
	off += 4
	c.trapValue = be.Uint32(buf[off:])
	off += 4

	c.reserveValid = buf[off] != 0
	off++
	c.reserveAddr = be.Uint32(buf[off:])
	off += 4
	c.reserveValue = be.Uint32(buf[off:])

	return nil
}
