package dispatcher

import (
	"testing"

	"github.com/miracast-wfd/netsession/internal/ioreactor"
	"github.com/miracast-wfd/netsession/internal/rtspmsg"
	"github.com/miracast-wfd/netsession/internal/testfake"
	"github.com/miracast-wfd/netsession/session"
)

// fakeReactor is a Reactor that just records its registration calls, so
// syncInterest/Forget can be tested without a real epoll descriptor.
type fakeReactor struct {
	added    map[int]bool
	modified map[int]bool
	removed  map[int]bool
}

func newFakeReactor() *fakeReactor {
	return &fakeReactor{added: map[int]bool{}, modified: map[int]bool{}, removed: map[int]bool{}}
}

func (r *fakeReactor) Add(fd int, read, write bool) error {
	r.added[fd] = true
	delete(r.removed, fd)
	return nil
}

func (r *fakeReactor) SetInterest(fd int, read, write bool) error {
	r.modified[fd] = true
	return nil
}

func (r *fakeReactor) Remove(fd int) error {
	r.removed[fd] = true
	delete(r.added, fd)
	return nil
}

func (r *fakeReactor) Wait(dst []ioreactor.Event, timeoutMs int) ([]ioreactor.Event, error) {
	return dst[:0], nil
}

func (r *fakeReactor) Close() error { return nil }

func newTestSession(t *testing.T, tbl *session.Table, fd int) *session.Session {
	t.Helper()
	id := tbl.AllocID()
	s := session.New(id, session.Datagram, fd, false, &testfake.Sink{}, rtspmsg.Default, func() int64 { return 0 }, nil)
	tbl.Insert(s)
	return s
}

func TestForgetRemovesRegistrationAndCache(t *testing.T) {
	tbl := session.NewTable()
	r := newFakeReactor()
	d := New(tbl, r, nil, nil, nil)

	const fd = 42
	d.registered[fd] = interest{read: true}

	d.Forget(fd)

	if !r.removed[fd] {
		t.Errorf("Forget did not call reactor.Remove for fd %d", fd)
	}
	if _, ok := d.registered[fd]; ok {
		t.Errorf("Forget left fd %d in d.registered", fd)
	}
}

func TestForgetOnUnregisteredFdIsNoop(t *testing.T) {
	tbl := session.NewTable()
	r := newFakeReactor()
	d := New(tbl, r, nil, nil, nil)

	d.Forget(7)

	if r.removed[7] {
		t.Errorf("Forget called reactor.Remove for an fd it never registered")
	}
}

// TestSyncInterestAfterForgetAddsNotModifies reproduces the fd-reuse
// scenario: a destroyed session's fd is Forgotten, then a brand-new
// session is inserted reusing that same fd number (as the kernel might
// hand out). syncInterest must Add the new registration, not SetInterest
// it, since the reactor no longer has any registration for that fd.
func TestSyncInterestAfterForgetAddsNotModifies(t *testing.T) {
	tbl := session.NewTable()
	r := newFakeReactor()
	d := New(tbl, r, nil, nil, nil)

	const fd = 99
	old := newTestSession(t, tbl, fd)
	tbl.Lock()
	d.syncInterest()
	tbl.Unlock()
	if !r.added[fd] {
		t.Fatalf("expected initial syncInterest to Add fd %d", fd)
	}

	tbl.Lock()
	tbl.Delete(old.ID())
	d.Forget(fd)
	tbl.Unlock()

	newTestSession(t, tbl, fd)
	tbl.Lock()
	d.syncInterest()
	tbl.Unlock()

	if r.modified[fd] {
		t.Errorf("syncInterest called SetInterest for reused fd %d; want Add since Forget cleared the stale registration", fd)
	}
	if !r.added[fd] {
		t.Errorf("syncInterest did not Add reused fd %d", fd)
	}
}
