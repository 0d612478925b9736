// File: control/sockets.go
//
// Socket-setup primitives shared by every Create* operation (§4.3). This
// is the Go rendering of ANetworkSession::createClientOrServer's per-mode
// table (original_source/native/wifi-display/ANetworkSession.cpp, lines
// 731-926): socket(2) → options → non-blocking → bind/listen or connect.
// IPv4 only (§1, §6).

package control

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// resolveIPv4 resolves host to its first IPv4 address. Loopback-style
// dotted-quad strings resolve without a network round trip.
func resolveIPv4(host string) ([4]byte, error) {
	var zero [4]byte
	addrs, err := net.LookupHost(host)
	if err != nil {
		return zero, fmt.Errorf("control: resolve %q: %w", host, err)
	}
	for _, a := range addrs {
		ip := net.ParseIP(a)
		if ip4 := ip.To4(); ip4 != nil {
			var out [4]byte
			copy(out[:], ip4)
			return out, nil
		}
	}
	return zero, fmt.Errorf("control: %q has no IPv4 address", host)
}

func newSocket(sockType int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, sockType, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func setReuseAddr(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

func setUDPBuffers(fd, bytes int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, bytes); err != nil {
		return err
	}
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, bytes)
}

func bindIPv4(fd int, ip [4]byte, port int) error {
	return unix.Bind(fd, &unix.SockaddrInet4{Addr: ip, Port: port})
}

func listenSocket(fd, backlog int) error {
	return unix.Listen(fd, backlog)
}

// connectResult distinguishes a connect(2) call that completed
// synchronously (common for loopback peers) from one left pending.
type connectResult int

const (
	connectPending connectResult = iota
	connectImmediate
	connectFailed
)

// connectIPv4 issues a non-blocking connect. §13 (SPEC_FULL.md) resolves
// the original's CHECK_LT(0, ...) assumption that connect never completes
// synchronously: on this port a loopback peer can, so both outcomes are
// handled explicitly.
func connectIPv4(fd int, ip [4]byte, port int) (connectResult, error) {
	err := unix.Connect(fd, &unix.SockaddrInet4{Addr: ip, Port: port})
	switch err {
	case nil:
		return connectImmediate, nil
	case unix.EINPROGRESS:
		return connectPending, nil
	default:
		return connectFailed, err
	}
}
