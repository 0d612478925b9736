// Package metrics holds small atomic counters describing a running Net
// (§9 design note: operational visibility without a full telemetry
// pipeline). Adapted from control/metrics.go's MetricsRegistry shape,
// narrowed from a dynamically-keyed map[string]any to fixed typed counters
// since this module's metric set is small and known in advance.
package metrics

import "sync/atomic"

// Registry is a fixed set of counters, safe for concurrent use by both the
// dispatcher goroutine and caller goroutines.
type Registry struct {
	sessionsCreated   atomic.Int64
	sessionsDestroyed atomic.Int64
	datagramsSent     atomic.Int64
	datagramsReceived atomic.Int64
	dispatcherPasses  atomic.Int64
}

// Snapshot is a point-in-time copy of a Registry's counters.
type Snapshot struct {
	SessionsCreated   int64
	SessionsDestroyed int64
	DatagramsSent     int64
	DatagramsReceived int64
	DispatcherPasses  int64
}

func (r *Registry) IncSessionsCreated()   { r.sessionsCreated.Add(1) }
func (r *Registry) IncSessionsDestroyed() { r.sessionsDestroyed.Add(1) }
func (r *Registry) IncDatagramsSent()     { r.datagramsSent.Add(1) }
func (r *Registry) IncDatagramsReceived() { r.datagramsReceived.Add(1) }
func (r *Registry) IncDispatcherPasses()  { r.dispatcherPasses.Add(1) }

// Snapshot returns a consistent-enough point-in-time read of all counters.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		SessionsCreated:   r.sessionsCreated.Load(),
		SessionsDestroyed: r.sessionsDestroyed.Load(),
		DatagramsSent:     r.datagramsSent.Load(),
		DatagramsReceived: r.datagramsReceived.Load(),
		DispatcherPasses:  r.dispatcherPasses.Load(),
	}
}
