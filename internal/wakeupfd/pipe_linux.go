//go:build linux

// File: internal/wakeupfd/pipe_linux.go

package wakeupfd

import (
	"log"

	"golang.org/x/sys/unix"
)

// Pipe is a self-pipe wakeup channel. ReadFd is registered with the
// dispatcher's reactor; WriteFd is used by every control-surface mutation
// and by SendRequest to ensure a blocked Wait call returns promptly.
type Pipe struct {
	ReadFd  int
	WriteFd int
}

// New creates a non-blocking pipe pair.
func New() (*Pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &Pipe{ReadFd: fds[0], WriteFd: fds[1]}, nil
}

// Wake writes a single byte, best-effort. EINTR is retried; EAGAIN (the
// pipe is full, so a wakeup is already pending) is ignored without logging;
// any other error is logged and ignored (§4.4: "the channel is best-effort").
func (p *Pipe) Wake() {
	var b [1]byte
	for {
		_, err := unix.Write(p.WriteFd, b[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil && err != unix.EAGAIN {
			log.Printf("wakeupfd: write failed: %v", err)
		}
		return
	}
}

// Drain reads at least one byte (and any more immediately available) off
// the read end after a readiness wakeup.
func (p *Pipe) Drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.ReadFd, buf[:])
		if err == unix.EINTR {
			continue
		}
		if n <= 0 || err != nil {
			return
		}
		if n < len(buf) {
			return
		}
	}
}

// Close closes both ends.
func (p *Pipe) Close() error {
	err1 := unix.Close(p.ReadFd)
	err2 := unix.Close(p.WriteFd)
	if err1 != nil {
		return err1
	}
	return err2
}
