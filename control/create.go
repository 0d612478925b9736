// File: control/create.go
//
// The five session-creation operations and ConnectUDPSession, one
// function each per §4.3's bullet list. Every socket is non-blocking
// before any other syscall touches it (§4.3: "All sockets are made
// non-blocking immediately after creation and before use").

package control

import (
	"golang.org/x/sys/unix"

	"github.com/miracast-wfd/netsession/api"
	"github.com/miracast-wfd/netsession/session"
)

// CreateRTSPClient resolves host, opens a non-blocking TCP connection, and
// returns the new session's id. The session starts in Connecting unless
// the connect happens to complete synchronously (§13).
func (n *Net) CreateRTSPClient(host string, port int, sink api.EventSink) (int64, error) {
	ip, err := resolveIPv4(host)
	if err != nil {
		return 0, err
	}
	fd, err := newSocket(unix.SOCK_STREAM)
	if err != nil {
		return 0, err
	}
	result, err := connectIPv4(fd, ip, port)
	if err != nil {
		unix.Close(fd)
		return 0, err
	}

	state := session.Connecting
	if result == connectImmediate {
		state = session.Connected
	}
	return n.insert(func(id int64) *session.Session {
		return session.New(id, state, fd, true, sink, n.parser, n.nowUs, n.mtr)
	}), nil
}

// CreateRTSPServer opens a listening TCP socket in RTSP-framing mode.
func (n *Net) CreateRTSPServer(localAddr string, port int, sink api.EventSink) (int64, error) {
	return n.createListener(localAddr, port, sink, session.ListeningRtsp)
}

// CreateTCPDatagramServer opens a listening TCP socket whose accepted
// children use length-prefixed framing rather than RTSP text (§4.3,
// passive variant).
func (n *Net) CreateTCPDatagramServer(localAddr string, port int, sink api.EventSink) (int64, error) {
	return n.createListener(localAddr, port, sink, session.ListeningTcpDgrams)
}

func (n *Net) createListener(localAddr string, port int, sink api.EventSink, state session.State) (int64, error) {
	ip, err := resolveIPv4(localAddr)
	if err != nil {
		return 0, err
	}
	fd, err := newSocket(unix.SOCK_STREAM)
	if err != nil {
		return 0, err
	}
	if err := setReuseAddr(fd); err != nil {
		unix.Close(fd)
		return 0, err
	}
	if err := bindIPv4(fd, ip, port); err != nil {
		unix.Close(fd)
		return 0, err
	}
	if err := listenSocket(fd, n.opts.ListenBacklog); err != nil {
		unix.Close(fd)
		return 0, err
	}
	isRTSP := state == session.ListeningRtsp
	return n.insert(func(id int64) *session.Session {
		return session.New(id, state, fd, isRTSP, sink, n.parser, n.nowUs, n.mtr)
	}), nil
}

// CreateTCPDatagramClient opens an active, non-blocking TCP connection
// whose stream uses length-prefixed framing rather than RTSP text (§4.3,
// active variant). localPort of 0 lets the kernel pick an ephemeral port.
func (n *Net) CreateTCPDatagramClient(localPort int, remoteHost string, remotePort int, sink api.EventSink) (int64, error) {
	ip, err := resolveIPv4(remoteHost)
	if err != nil {
		return 0, err
	}
	fd, err := newSocket(unix.SOCK_STREAM)
	if err != nil {
		return 0, err
	}
	if localPort != 0 {
		if err := bindIPv4(fd, [4]byte{0, 0, 0, 0}, localPort); err != nil {
			unix.Close(fd)
			return 0, err
		}
	}
	result, err := connectIPv4(fd, ip, remotePort)
	if err != nil {
		unix.Close(fd)
		return 0, err
	}
	state := session.Connecting
	if result == connectImmediate {
		state = session.Connected
	}
	return n.insert(func(id int64) *session.Session {
		return session.New(id, state, fd, false, sink, n.parser, n.nowUs, n.mtr)
	}), nil
}

// CreateUDPSession opens a UDP socket with the §6-mandated 256 KiB socket
// buffers, bound to localPort. If remoteHost is non-empty the socket is
// connected to pin its peer before the Session is constructed.
func (n *Net) CreateUDPSession(localPort int, remoteHost string, remotePort int, sink api.EventSink) (int64, error) {
	fd, err := newSocket(unix.SOCK_DGRAM)
	if err != nil {
		return 0, err
	}
	if err := setUDPBuffers(fd, n.opts.UDPSocketBufferBytes); err != nil {
		unix.Close(fd)
		return 0, err
	}
	if err := bindIPv4(fd, [4]byte{0, 0, 0, 0}, localPort); err != nil {
		unix.Close(fd)
		return 0, err
	}
	if remoteHost != "" {
		ip, err := resolveIPv4(remoteHost)
		if err != nil {
			unix.Close(fd)
			return 0, err
		}
		if _, err := connectIPv4(fd, ip, remotePort); err != nil {
			unix.Close(fd)
			return 0, err
		}
	}
	return n.insert(func(id int64) *session.Session {
		return session.New(id, session.Datagram, fd, false, sink, n.parser, n.nowUs, n.mtr)
	}), nil
}

// ConnectUDPSession pins an existing UDP session's remote peer (§4.3).
func (n *Net) ConnectUDPSession(id int64, remoteHost string, remotePort int) error {
	ip, err := resolveIPv4(remoteHost)
	if err != nil {
		return err
	}
	n.table.Lock()
	s, ok := n.table.Get(id)
	var connectErr error
	if ok {
		if s.State() != session.Datagram {
			n.table.Unlock()
			return api.ErrInvalidState
		}
		_, connectErr = connectIPv4(s.Fd(), ip, remotePort)
	}
	n.table.Unlock()
	if !ok {
		return api.ErrSessionNotFound
	}
	if connectErr == nil {
		n.wake.Wake()
	}
	return connectErr
}
