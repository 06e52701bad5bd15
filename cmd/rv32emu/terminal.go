package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// consoleSerial implements rv32emu.Serial over the host's stdin/stdout,
// presenting the guest with a line-status register whose low bit
// signals byte availability (§4.3).
//
// This mirrors the pack's terminal_host.go: the controlling TTY is put
// into raw mode and a background goroutine drains stdin into a
// mutex-guarded byte buffer via non-blocking reads, so the CPU's own step loop never
// blocks on host I/O.
type consoleSerial struct {
	mu  sync.Mutex
	buf []byte

	fd      int
	oldTerm *term.State
	raw     bool

	stopCh chan struct{}
	done   chan struct{}
}

func newConsoleSerial() *consoleSerial {
	return &consoleSerial{
		fd:     int(os.Stdin.Fd()),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start places stdin in raw, non-blocking mode and begins polling it on
// a background goroutine. Host failures here are reported but never
// fatal to the interpreter (§7 category 3): the console degrades to
// "never has input" rather than crashing the guest.
func (s *consoleSerial) Start() {
	oldState, err := term.MakeRaw(s.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32emu: console: failed to set raw mode: %v\n", err)
		close(s.done)
		return
	}
	s.oldTerm = oldState
	s.raw = true

	if err := unix.SetNonblock(s.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "rv32emu: console: failed to set non-blocking stdin: %v\n", err)
	}

	go s.pollLoop()
}

func (s *consoleSerial) pollLoop() {
	defer close(s.done)
	b := make([]byte, 256)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		n, err := unix.Read(s.fd, b)
		if n > 0 {
			s.mu.Lock()
			s.buf = append(s.buf, b[:n]...)
			s.mu.Unlock()
		}
		if err == unix.EAGAIN {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

// Stop restores the original terminal state and stops the poll goroutine.
func (s *consoleSerial) Stop() {
	close(s.stopCh)
	<-s.done
	if s.raw {
		_ = term.Restore(s.fd, s.oldTerm)
	}
}

// Read services the guest's reads of the data register (offset 0x000)
// and line-status register (offset 0x005); see §4.3.
func (s *consoleSerial) Read(addr16 uint16) uint8 {
	switch addr16 {
	case 0x000:
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.buf) == 0 {
			return 0
		}
		b := s.buf[0]
		s.buf = s.buf[1:]
		return b
	case 0x005:
		s.mu.Lock()
		defer s.mu.Unlock()
		var avail uint8
		if len(s.buf) > 0 {
			avail = 1
		}
		return 0x60 | avail
	}
	return 0
}

// Write services the guest's writes to the data register by echoing the
// low byte to stdout.
func (s *consoleSerial) Write(addr16 uint16, val uint32) {
	if addr16 == 0x000 {
		os.Stdout.Write([]byte{byte(val)})
	}
}
