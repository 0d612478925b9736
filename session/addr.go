// File: session/addr.go

package session

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// dottedQuad formats a 4-byte IPv4 address in network byte order (as held
// in unix.SockaddrInet4.Addr) as a dotted-quad string, matching the
// original's manual StringPrintf logic.
func dottedQuad(b [4]byte) string {
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}

// sockaddrToIPPort extracts (ip, port) from a unix.Sockaddr known to be
// IPv4; it returns ("", 0) for any other address family since this core is
// IPv4-only by design (§1 Non-goals).
func sockaddrToIPPort(sa unix.Sockaddr) (ip string, port int) {
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return "", 0
	}
	return dottedQuad(in4.Addr), in4.Port
}

func localPeerAddrs(fd int) (serverIP string, serverPort int, clientIP string, clientPort int, err error) {
	local, err := unix.Getsockname(fd)
	if err != nil {
		return "", 0, "", 0, err
	}
	remote, err := unix.Getpeername(fd)
	if err != nil {
		return "", 0, "", 0, err
	}
	serverIP, serverPort = sockaddrToIPPort(local)
	clientIP, clientPort = sockaddrToIPPort(remote)
	return serverIP, serverPort, clientIP, clientPort, nil
}
