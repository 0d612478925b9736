// File: control/net.go
//
// Net is the public control surface (§4.3): one Net owns one session
// table, one Reactor, one wakeup pipe, and the single Dispatcher that
// drives them. Grounded on ANetworkSession's public method set, generalized
// from its sharded session manager to the single-lock Table §5 requires.

package control

import (
	"sync"
	"time"

	"github.com/miracast-wfd/netsession/api"
	"github.com/miracast-wfd/netsession/dispatcher"
	"github.com/miracast-wfd/netsession/internal/ioreactor"
	"github.com/miracast-wfd/netsession/internal/rtspmsg"
	"github.com/miracast-wfd/netsession/internal/wakeupfd"
	"github.com/miracast-wfd/netsession/metrics"
	"github.com/miracast-wfd/netsession/session"
)

// NowUsFunc matches session.NowUsFunc; exported here so callers can supply
// a deterministic clock in tests.
type NowUsFunc = session.NowUsFunc

// realNowUs is the production clock: monotonic microseconds since an
// arbitrary epoch, derived from the Go runtime's monotonic reading.
func realNowUs() int64 {
	return time.Since(monoEpoch).Microseconds()
}

// monoEpoch is realNowUs's arbitrary epoch; time.Since measures from it on
// the monotonic clock.
var monoEpoch = time.Now()

// Net is the entry point applications use to create and drive sessions.
type Net struct {
	opts   Options
	parser api.Parser
	nowUs  NowUsFunc
	mtr    *metrics.Registry

	table   *session.Table
	reactor ioreactor.Reactor
	wake    *wakeupfd.Pipe
	disp    *dispatcher.Dispatcher

	lifecycleMu sync.Mutex
	started     bool
}

// Metrics returns the Net's counters (§9 design note).
func (n *Net) Metrics() metrics.Snapshot { return n.mtr.Snapshot() }

// New constructs a Net with the given Options. The dispatcher is not
// started until Start is called.
func New(opts Options) (*Net, error) {
	reactor, err := ioreactor.New()
	if err != nil {
		return nil, err
	}
	wake, err := wakeupfd.New()
	if err != nil {
		reactor.Close()
		return nil, err
	}

	n := &Net{
		opts:    opts,
		parser:  rtspmsg.Default,
		nowUs:   realNowUs,
		mtr:     &metrics.Registry{},
		table:   session.NewTable(),
		reactor: reactor,
		wake:    wake,
	}
	n.disp = dispatcher.New(n.table, n.reactor, n.wake, n, n.mtr)
	return n, nil
}

// Start launches the background dispatcher goroutine (§5 scheduling
// model). Returns api.ErrAlreadyRunning if already started.
func (n *Net) Start() error {
	n.lifecycleMu.Lock()
	defer n.lifecycleMu.Unlock()
	if n.started {
		return api.ErrAlreadyRunning
	}
	n.disp.Start()
	n.started = true
	return nil
}

// Stop joins the background dispatcher goroutine (§5 Cancellation).
// Returns api.ErrNotRunning if not started.
func (n *Net) Stop() error {
	n.lifecycleMu.Lock()
	defer n.lifecycleMu.Unlock()
	if !n.started {
		return api.ErrNotRunning
	}
	n.disp.Stop()
	n.started = false
	return nil
}

// Close releases the reactor and wakeup-pipe file descriptors. The Net
// must be stopped first; Close does not close individual session sockets
// (use Destroy, or let process exit reclaim them).
func (n *Net) Close() error {
	n.lifecycleMu.Lock()
	defer n.lifecycleMu.Unlock()
	if n.started {
		return api.ErrAlreadyRunning
	}
	err := n.reactor.Close()
	if werr := n.wake.Close(); err == nil {
		err = werr
	}
	return err
}

// Destroy removes a session from the table and closes its socket (§4.3,
// §5: "destroy(id) is synchronous from the caller's perspective").
//
// The dispatcher's epoll registration for the fd is dropped here, under the
// table lock, before the fd is closed — not left to the next syncInterest
// pass — so a fd number the kernel immediately reuses for a new session
// can never collide with a stale registration (dispatcher.Forget).
func (n *Net) Destroy(id int64) error {
	n.table.Lock()
	s, ok := n.table.Get(id)
	if ok {
		n.table.Delete(id)
		n.disp.Forget(s.Fd())
	}
	n.table.Unlock()
	if !ok {
		return api.ErrSessionNotFound
	}
	err := s.Close()
	n.mtr.IncSessionsDestroyed()
	n.wake.Wake()
	return err
}

// SendRequest forwards data to an existing session (§4.3).
func (n *Net) SendRequest(id int64, data []byte) error {
	n.table.Lock()
	s, ok := n.table.Get(id)
	var err error
	if ok {
		err = s.SendRequest(data)
	}
	n.table.Unlock()
	if !ok {
		return api.ErrSessionNotFound
	}
	if err == nil {
		n.wake.Wake()
	}
	return err
}

// insert allocates an id under the table lock, constructs the Session via
// build, inserts it, and wakes the dispatcher.
func (n *Net) insert(build func(id int64) *session.Session) int64 {
	n.table.Lock()
	id := n.table.AllocID()
	s := build(id)
	n.table.Insert(s)
	n.table.Unlock()
	n.mtr.IncSessionsCreated()
	n.wake.Wake()
	return id
}
