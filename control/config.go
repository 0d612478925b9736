// File: control/config.go
//
// Typed, fixed configuration surface for a Net (§10.3). Adapted from the
// teacher's ConfigStore (mutex + plain map, snapshot-by-copy), narrowed
// from a dynamic map[string]any to a small typed struct because this
// module's configuration surface is fixed and known at compile time,
// unlike the teacher's intentionally-open reload system.

package control

// Options configures socket behavior for everything a Net creates.
type Options struct {
	// ListenBacklog is passed to listen(2) for RTSP and TCP-datagram
	// servers (§4.3: "listen(backlog ≥ 4)").
	ListenBacklog int

	// UDPSocketBufferBytes sets SO_RCVBUF and SO_SNDBUF on UDP sockets
	// (§6: "UDP sockets set 256 KiB send and receive buffers").
	UDPSocketBufferBytes int
}

// DefaultOptions returns the socket options §6 mandates.
func DefaultOptions() Options {
	return Options{
		ListenBacklog:        4,
		UDPSocketBufferBytes: 256 * 1024,
	}
}
