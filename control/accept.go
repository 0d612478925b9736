// File: control/accept.go
//
// Net implements dispatcher.Accepter: turning a listening session's
// readiness into a new child Session is a creation operation, so it
// belongs with the rest of control's socket-setup logic rather than in
// the dispatcher itself.

package control

import (
	"golang.org/x/sys/unix"

	"github.com/miracast-wfd/netsession/session"
)

// Accept implements dispatcher.Accepter. Called with the table lock held.
func (n *Net) Accept(parent *session.Session, childID int64) (*session.Session, bool) {
	fd, _, err := unix.Accept4(parent.Fd(), unix.SOCK_NONBLOCK)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	isRTSP := parent.State() == session.ListeningRtsp
	child := session.New(childID, session.Connected, fd, isRTSP, parent.Sink(), n.parser, n.nowUs, n.mtr)
	return child, true
}
