//go:build !linux

// File: internal/wakeupfd/pipe_stub.go

package wakeupfd

import "github.com/miracast-wfd/netsession/api"

// Pipe is the non-Linux placeholder; see internal/ioreactor's stub for why
// this core does not carry a second, non-POSIX I/O backend.
type Pipe struct {
	ReadFd  int
	WriteFd int
}

func New() (*Pipe, error) {
	return nil, api.ErrNotSupported
}

func (p *Pipe) Wake()        {}
func (p *Pipe) Drain()       {}
func (p *Pipe) Close() error { return nil }
