// Command rv32emu boots a flat RV32IMA kernel image.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"rv32emu"
)

const (
	ramBaseAddr      = 0x8000_0000
	defaultRAMSize   = 64 * 1024 * 1024
	idleSleepMicros  = 100
	progressBarFloor = 8 * 1024 * 1024
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		imagePath = flagString("i", "image-file-path", "", "path to a flat binary kernel image (required)")
		dtbPath   = flagString("d", "dtb-file-path", "", "path to a device tree blob loaded at the top of RAM")
		ramSize   = flagUint("r", "ram-size", defaultRAMSize, "RAM size in bytes")
		snapshot  = flagString("s", "snapshot", "", "optional CPU snapshot to resume from instead of a cold boot")
	)
	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "rv32emu: -i/--image-file-path is required")
		return 1
	}

	console := newConsoleSerial()
	bus := rv32emu.NewSystemBus(int(*ramSize), rv32emu.NewCLINT(newWallClock()), console)

	dtbAddr, err := loadImages(bus, *imagePath, *dtbPath, int(*ramSize))
	if err != nil {
		fmt.Fprintln(os.Stderr, "rv32emu:", err)
		return 1
	}

	cpu := rv32emu.New(bus)
	if *snapshot != "" && fileExists(*snapshot) {
		if err := loadSnapshot(cpu, *snapshot); err != nil {
			fmt.Fprintln(os.Stderr, "rv32emu:", err)
			return 1
		}
	} else {
		cpu.SetBootRegisters(0, dtbAddr, ramBaseAddr)
	}

	console.Start()
	defer console.Stop()

	// A snapshot path doubles as the SIGINT destination: Ctrl-C serializes
	// the running CPU there instead of terminating the guest uninspected.
	// With no -s/--snapshot flag, SIGINT keeps the normal default behavior.
	var interrupt chan os.Signal
	if *snapshot != "" {
		interrupt = make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
	}

	return driverLoop(cpu, bus, interrupt, *snapshot)
}

// driverLoop repeatedly steps the CPU, sleeping briefly while idle,
// observing syscon power-off/reboot requests between steps (§5), and
// saving a snapshot on SIGINT if interrupt is non-nil.
func driverLoop(cpu *rv32emu.CPU, bus *rv32emu.SystemBus, interrupt <-chan os.Signal, snapshotPath string) int {
	for {
		select {
		case <-interrupt:
			return saveSnapshot(cpu, snapshotPath)
		default:
		}

		result := cpu.Step()

		if result == rv32emu.Idle {
			time.Sleep(idleSleepMicros * time.Microsecond)
			cpu.AddCycle()
			continue
		}

		if bus.PowerOff {
			return 0
		}
		if bus.Reboot {
			bus.Reboot = false
			hartID, dtbAddr := cpu.Reg(10), cpu.Reg(11)
			cpu.Reset(bus)
			cpu.SetBootRegisters(hartID, dtbAddr, ramBaseAddr)
		}
	}
}

// loadImages copies the kernel image to RAM base and, if given, the DTB
// to the top of RAM, returning the DTB's physical address (0 if none).
func loadImages(bus *rv32emu.SystemBus, imagePath, dtbPath string, ramSize int) (uint32, error) {
	ram := bus.RAM()

	imgData, err := os.ReadFile(imagePath)
	if err != nil {
		return 0, fmt.Errorf("reading image: %w", err)
	}
	if len(imgData) > ramSize {
		return 0, fmt.Errorf("image of %d bytes exceeds RAM size of %d bytes", len(imgData), ramSize)
	}
	copyWithProgress(ram, imgData, "loading kernel image")

	if dtbPath == "" {
		return 0, nil
	}

	dtbData, err := os.ReadFile(dtbPath)
	if err != nil {
		return 0, fmt.Errorf("reading dtb: %w", err)
	}
	dtbOffset := ramSize - len(dtbData)
	if dtbOffset < len(imgData) {
		return 0, fmt.Errorf("dtb of %d bytes does not fit above the kernel image", len(dtbData))
	}
	copy(ram[dtbOffset:], dtbData)

	return uint32(ramBaseAddr + dtbOffset), nil
}

// copyWithProgress copies src into dst, rendering a progress bar for
// large images on an interactive terminal.
func copyWithProgress(dst, src []byte, description string) {
	if len(src) < progressBarFloor || !term.IsTerminal(int(os.Stdout.Fd())) {
		copy(dst, src)
		return
	}
	bar := progressbar.DefaultBytes(int64(len(src)), description)
	const chunk = 64 * 1024
	for off := 0; off < len(src); off += chunk {
		end := off + chunk
		if end > len(src) {
			end = len(src)
		}
		n := copy(dst[off:end], src[off:end])
		_ = bar.Add(n)
	}
	_ = bar.Finish()
}

func loadSnapshot(cpu *rv32emu.CPU, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return cpu.Deserialize(data)
}

// saveSnapshot serializes cpu's architectural state to path, for the
// SIGINT handler in driverLoop. Failures here are reported but still
// end the run cleanly (category 3, §9): there is no running guest left
// to protect by that point.
func saveSnapshot(cpu *rv32emu.CPU, path string) int {
	buf := make([]byte, cpu.SerializeSize())
	if err := cpu.Serialize(buf); err != nil {
		fmt.Fprintln(os.Stderr, "rv32emu: serializing snapshot:", err)
		return 1
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "rv32emu: writing snapshot:", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "rv32emu: snapshot written to %s\n", path)
	return 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func flagString(short, long, def, usage string) *string {
	v := flag.String(long, def, usage)
	flag.StringVar(v, short, def, usage+" (shorthand)")
	return v
}

func flagUint(short, long string, def uint, usage string) *uint {
	v := flag.Uint(long, def, usage)
	flag.UintVar(v, short, def, usage+" (shorthand)")
	return v
}
