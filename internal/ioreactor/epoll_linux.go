//go:build linux

// File: internal/ioreactor/epoll_linux.go
//
// Linux epoll(7) backend. Adapted from the teacher's
// reactor/reactor_linux.go + reactor/epoll_reactor.go: level-triggered
// (no EPOLLET), interest toggled per-pass via EPOLL_CTL_MOD instead of
// registering once and dispatching through a stored callback.

package ioreactor

import (
	"golang.org/x/sys/unix"
)

type epollReactor struct {
	epfd int
}

// New constructs the Linux epoll-backed Reactor.
func New() (Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollReactor{epfd: epfd}, nil
}

func interestMask(read, write bool) uint32 {
	var ev uint32
	if read {
		ev |= unix.EPOLLIN
	}
	if write {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (r *epollReactor) Add(fd int, read, write bool) error {
	ev := unix.EpollEvent{Events: interestMask(read, write), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (r *epollReactor) SetInterest(fd int, read, write bool) error {
	ev := unix.EpollEvent{Events: interestMask(read, write), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (r *epollReactor) Remove(fd int) error {
	err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (r *epollReactor) Wait(dst []Event, timeoutMs int) ([]Event, error) {
	var raw [128]unix.EpollEvent
	n, err := unix.EpollWait(r.epfd, raw[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return dst[:0], nil
		}
		return dst[:0], err
	}
	out := dst[:0]
	for i := 0; i < n; i++ {
		e := raw[i]
		out = append(out, Event{
			Fd:    int(e.Fd),
			Read:  e.Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0,
			Write: e.Events&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0,
		})
	}
	return out, nil
}

func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
