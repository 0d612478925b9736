// File: internal/ioreactor/reactor.go
//
// Platform-neutral readiness-multiplexing backend used by the dispatcher
// (§4.2). One Reactor instance owns exactly one underlying poll-mode
// descriptor (epoll on Linux); session sockets and the wakeup pipe's read
// end are all registered with it.

package ioreactor

// Event reports readiness for one registered file descriptor.
type Event struct {
	Fd    int
	Read  bool
	Write bool
}

// Reactor is a level-triggered readiness multiplexer. Unlike an
// edge-triggered design, interest must be re-declared (via SetInterest)
// whenever a session's wantsToRead/wantsToWrite answer changes between
// passes — this matches §4.2's "rebuild the sets every pass" model more
// directly than one-shot edge-triggered registration would.
type Reactor interface {
	// Add registers fd with the given initial interest.
	Add(fd int, read, write bool) error

	// SetInterest updates read/write interest for an already-registered fd.
	SetInterest(fd int, read, write bool) error

	// Remove deregisters fd. Safe to call after the fd has already been closed
	// by the caller only on platforms where the kernel auto-removes closed
	// fds (Linux epoll does); portable callers should Remove before Close.
	Remove(fd int) error

	// Wait blocks until at least one registered fd is ready or timeoutMs
	// milliseconds have passed (no limit if timeoutMs < 0), appending ready
	// events to dst[:0] and returning the populated slice, which is empty
	// after a timeout or an interrupted wait.
	Wait(dst []Event, timeoutMs int) ([]Event, error)

	// Close releases the underlying poll descriptor.
	Close() error
}
