//go:build !linux

// File: internal/ioreactor/reactor_stub.go
//
// Non-Linux placeholder. The core's socket-level code (non-blocking
// connect-error probing via SO_ERROR, raw recvfrom/sendto) is POSIX-shaped
// throughout; porting the reactor alone would not make the rest of the
// core portable, so this stub is honest about the gap rather than a
// silent partial implementation.

package ioreactor

import "github.com/miracast-wfd/netsession/api"

// New returns api.ErrNotSupported on any platform without a Reactor backend.
func New() (Reactor, error) {
	return nil, api.ErrNotSupported
}
