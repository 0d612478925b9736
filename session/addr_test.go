package session

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestDottedQuad(t *testing.T) {
	got := dottedQuad([4]byte{192, 168, 1, 42})
	if got != "192.168.1.42" {
		t.Errorf("dottedQuad = %q, want 192.168.1.42", got)
	}
}

func TestSockaddrToIPPort(t *testing.T) {
	sa := &unix.SockaddrInet4{Addr: [4]byte{10, 0, 0, 1}, Port: 5540}
	ip, port := sockaddrToIPPort(sa)
	if ip != "10.0.0.1" || port != 5540 {
		t.Errorf("got ip=%q port=%d, want 10.0.0.1:5540", ip, port)
	}
}
