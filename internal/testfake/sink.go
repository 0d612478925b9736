// Package testfake provides an in-memory api.EventSink for assertions in
// package tests, recording every posted event under a mutex. Adapted from
// the teacher's fake/fakereactor.go recording-fake pattern.
package testfake

import (
	"sync"

	"github.com/miracast-wfd/netsession/api"
)

// Sink records every event posted to it, in order.
type Sink struct {
	mu     sync.Mutex
	events []api.Event
}

// Post implements api.EventSink.
func (s *Sink) Post(ev api.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of every event recorded so far.
func (s *Sink) Events() []api.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Reset discards all recorded events.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// ByReason returns every recorded event matching reason, in order.
func (s *Sink) ByReason(reason api.Reason) []api.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.Event
	for _, ev := range s.events {
		if ev.Reason == reason {
			out = append(out, ev)
		}
	}
	return out
}
