// File: dispatcher/dispatcher.go
//
// The single dedicated worker goroutine that drives all socket I/O (§4.2,
// §5). Exactly one Dispatcher exists per Net; it owns the Reactor and the
// wakeup pipe's read end, and it is the only goroutine that ever calls a
// Session's ReadMore/WriteMore.
//
// Grounded on ANetworkSession::threadLoop (original_source, lines
// 998-1163): build interest under the lock, release it, block in the
// multiplex call, reacquire, iterate in reverse, accept-then-stage,
// insert staged children after the pass.
package dispatcher

import (
	"log"
	"sync"

	"github.com/miracast-wfd/netsession/internal/ioreactor"
	"github.com/miracast-wfd/netsession/internal/wakeupfd"
	"github.com/miracast-wfd/netsession/metrics"
	"github.com/miracast-wfd/netsession/session"
)

// Accepter is implemented by the control surface to turn a listening
// session's readiness into a new child Session, so this package does not
// need to know about socket-mode setup (§4.3's createClientOrServer table
// lives in control, not here).
type Accepter interface {
	// Accept is called with the table lock held, for a session whose
	// state is ListeningRtsp or ListeningTcpDgrams and whose fd is
	// read-ready. childID has already been reserved via the table's id
	// sequence. It returns the new child Session (already constructed in
	// the Connected state, via session.New) or ok=false if accept would
	// block or failed for any other reason.
	Accept(parent *session.Session, childID int64) (child *session.Session, ok bool)
}

// Dispatcher runs the event loop described in §4.2.
type Dispatcher struct {
	table    *session.Table
	reactor  ioreactor.Reactor
	wake     *wakeupfd.Pipe
	accepter Accepter
	mtr      *metrics.Registry

	registered map[int]interest

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

type interest struct {
	read, write bool
}

// New builds a Dispatcher over an existing table, reactor and wakeup pipe.
// The caller owns startup/shutdown of those three; Dispatcher only drives
// them.
func New(table *session.Table, reactor ioreactor.Reactor, wake *wakeupfd.Pipe, accepter Accepter, mtr *metrics.Registry) *Dispatcher {
	return &Dispatcher{
		table:      table,
		reactor:    reactor,
		wake:       wake,
		accepter:   accepter,
		mtr:        mtr,
		registered: make(map[int]interest),
		done:       make(chan struct{}),
	}
}

// Start launches the worker goroutine. Safe to call once.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop requests the worker to exit and waits for it to do so (§5
// Cancellation). Safe to call once; the wakeup pipe write unblocks a
// worker parked in Wait.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.wake.Wake()
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	if err := d.reactor.Add(d.wake.ReadFd, true, false); err != nil {
		log.Printf("dispatcher: failed to register wakeup fd: %v", err)
		return
	}

	var events []ioreactor.Event
	for {
		select {
		case <-d.done:
			return
		default:
		}

		d.table.Lock()
		d.syncInterest()
		d.table.Unlock()

		var err error
		events, err = d.reactor.Wait(events[:0], -1)
		if err != nil {
			log.Printf("dispatcher: reactor wait failed: %v", err)
			continue
		}

		readReady := make(map[int]bool, len(events))
		writeReady := make(map[int]bool, len(events))
		wakeReady := false
		for _, ev := range events {
			if ev.Fd == d.wake.ReadFd {
				wakeReady = wakeReady || ev.Read
				continue
			}
			if ev.Read {
				readReady[ev.Fd] = true
			}
			if ev.Write {
				writeReady[ev.Fd] = true
			}
		}
		if wakeReady {
			d.wake.Drain()
		}

		select {
		case <-d.done:
			return
		default:
		}

		d.table.Lock()
		d.runPass(readReady, writeReady)
		d.table.Unlock()
		if d.mtr != nil {
			d.mtr.IncDispatcherPasses()
		}
	}
}

// Forget drops fd from the reactor and from the dispatcher's registered-
// interest cache. Callers must hold the table lock — d.registered is
// otherwise only ever touched by the dispatcher goroutine itself while
// holding that same lock (syncInterest, runPass), so this keeps it
// unsynchronized rather than adding a second mutex for one field.
//
// This exists so a session's fd can be un-registered at the moment it is
// destroyed, rather than only lazily on the next syncInterest pass: Linux
// drops a closed fd from epoll's interest list on close(2), and a fd number
// can be reused by a newly-created session before that next pass runs. If
// d.registered still carried the stale entry at that point, syncInterest
// would see the fd in both desired and registered and issue SetInterest
// (EPOLL_CTL_MOD) instead of Add — which fails ENOENT against the kernel's
// already-dropped registration, leaving the new session's fd never actually
// registered.
func (d *Dispatcher) Forget(fd int) {
	if _, ok := d.registered[fd]; !ok {
		return
	}
	if err := d.reactor.Remove(fd); err != nil {
		log.Printf("dispatcher: remove fd %d failed: %v", fd, err)
	}
	delete(d.registered, fd)
}

// syncInterest rebuilds the reactor's registration set from the table's
// current wantsToRead/wantsToWrite answers (§4.2 step 1). Callers must
// hold the table lock.
func (d *Dispatcher) syncInterest() {
	desired := make(map[int]interest, d.table.Len())
	d.table.Each(func(s *session.Session) bool {
		desired[s.Fd()] = interest{read: s.WantsToRead(), write: s.WantsToWrite()}
		return true
	})

	for fd := range d.registered {
		if _, ok := desired[fd]; !ok {
			if err := d.reactor.Remove(fd); err != nil {
				log.Printf("dispatcher: remove fd %d failed: %v", fd, err)
			}
			delete(d.registered, fd)
		}
	}
	for fd, want := range desired {
		have, ok := d.registered[fd]
		switch {
		case !ok:
			if err := d.reactor.Add(fd, want.read, want.write); err != nil {
				log.Printf("dispatcher: add fd %d failed: %v", fd, err)
				continue
			}
		case have != want:
			if err := d.reactor.SetInterest(fd, want.read, want.write); err != nil {
				log.Printf("dispatcher: set interest fd %d failed: %v", fd, err)
				continue
			}
		default:
			continue
		}
		d.registered[fd] = want
	}
}

// runPass implements §4.2 steps 4-6. Callers must hold the table lock.
func (d *Dispatcher) runPass(readReady, writeReady map[int]bool) {
	var staged []*session.Session

	d.table.Each(func(s *session.Session) bool {
		if !readReady[s.Fd()] {
			return true
		}
		if s.IsListening() {
			if child, ok := d.accepter.Accept(s, d.table.AllocID()); ok {
				staged = append(staged, child)
			}
			return true
		}
		_ = s.ReadMore()
		return true
	})

	d.table.Each(func(s *session.Session) bool {
		if !writeReady[s.Fd()] {
			return true
		}
		_ = s.WriteMore()
		return true
	})

	for _, child := range staged {
		d.table.Insert(child)
	}
}
