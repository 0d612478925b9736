// File: session/session.go
//
// Session owns one non-blocking socket, its lifecycle state, its in/out
// buffers, and its event-emission policy (§3, §4.1). A Session is only
// touched while the owning Table's lock is held (ReadMore/WriteMore by the
// dispatcher's single worker goroutine, SendRequest by control-surface
// goroutines) or after it has been removed from the Table (Close, from
// Destroy) — see Table's doc comment for the locking discipline (§5) — so
// Session itself carries no mutex.
//
// Grounded line-for-line on ANetworkSession::Session in
// original_source/native/wifi-display/ANetworkSession.cpp.
package session

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/eapache/queue"

	"github.com/miracast-wfd/netsession/api"
	"github.com/miracast-wfd/netsession/metrics"
	"github.com/miracast-wfd/netsession/rtp"
)

// maxUDPDatagram bounds a single recvfrom read for a Datagram session,
// matching the original's kMaxUDPSize.
const maxUDPDatagram = 1500

// streamReadChunk bounds a single read(2) call for a Connected session,
// matching the original's "char tmp[512]" scratch buffer (§4.1: "size is
// not contractual").
const streamReadChunk = 512

// wfdIDRRequest is the exact 17-byte body the peer's buggy Content-Length
// undercounts by two (§4.1 compatibility quirk).
var wfdIDRRequest = []byte("wfd_idr_request\r\n")

// NowUsFunc returns the current time in monotonic microseconds, used for
// datagram/frame arrival stamps and the outbound RTP timestamp rewrite.
type NowUsFunc func() int64

// Session is one socket plus its framing state (§3).
type Session struct {
	id            int64
	state         State
	fd            int
	isRTSPFraming bool

	inbound        []byte
	outboundStream []byte
	outboundDgrams *queue.Queue // of []byte

	sawRecvFailure bool
	sawSendFailure bool

	sink   api.EventSink
	parser api.Parser
	nowUs  NowUsFunc
	mtr    *metrics.Registry
}

// New constructs a Session for fd in the given initial state. If state is
// Connected, it immediately queries both socket endpoints and posts a
// ClientConnected event (§4.1 Construction) — this is how an RTSP-server
// accept produces its child-session notification. mtr may be nil, in which
// case counters are simply not updated.
func New(id int64, state State, fd int, isRTSPFraming bool, sink api.EventSink, parser api.Parser, nowUs NowUsFunc, mtr *metrics.Registry) *Session {
	s := &Session{
		id:             id,
		state:          state,
		fd:             fd,
		isRTSPFraming:  isRTSPFraming,
		outboundDgrams: queue.New(),
		sink:           sink,
		parser:         parser,
		nowUs:          nowUs,
		mtr:            mtr,
	}
	if state == Connected {
		if serverIP, serverPort, clientIP, clientPort, err := localPeerAddrs(fd); err == nil {
			sink.Post(api.Event{
				SessionID:  id,
				Reason:     api.ReasonClientConnected,
				ServerIP:   serverIP,
				ServerPort: serverPort,
				ClientIP:   clientIP,
				ClientPort: clientPort,
			})
		}
	}
	return s
}

// ID returns the session's dense positive identifier.
func (s *Session) ID() int64 { return s.id }

// Fd returns the owned socket descriptor.
func (s *Session) Fd() int { return s.fd }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Sink returns the event sink this session posts to, so a listening
// session's accept handler can clone it into the accepted child (§4.2).
func (s *Session) Sink() api.EventSink { return s.sink }

// IsListening reports whether this session only produces accept events.
func (s *Session) IsListening() bool {
	return s.state == ListeningRtsp || s.state == ListeningTcpDgrams
}

// WantsToRead implements the §3 read-interest invariant.
func (s *Session) WantsToRead() bool {
	return !s.sawRecvFailure && s.state != Connecting
}

// WantsToWrite implements the §3 write-interest invariant.
func (s *Session) WantsToWrite() bool {
	if s.sawSendFailure {
		return false
	}
	switch s.state {
	case Connecting:
		return true
	case Connected:
		return len(s.outboundStream) > 0
	case Datagram:
		return s.outboundDgrams.Length() > 0
	default:
		return false
	}
}

// errnoOf converts a raw unix error into the negative-errno-style code
// carried on Error events (§6).
func errnoOf(err error) int {
	if errno, ok := err.(unix.Errno); ok {
		return -int(errno)
	}
	return -1
}

const errConnReset = -int(unix.ECONNRESET)

func (s *Session) notifyError(send bool, errCode int, detail string) {
	s.sink.Post(api.Event{
		SessionID: s.id,
		Reason:    api.ReasonError,
		Send:      send,
		Err:       errCode,
		Detail:    detail,
	})
}

// ReadMore performs one round of non-blocking reads (§4.1 readMore).
func (s *Session) ReadMore() error {
	if s.state == Datagram {
		return s.readDatagram()
	}
	return s.readStream()
}

func (s *Session) readDatagram() error {
	for {
		buf := make([]byte, maxUDPDatagram)
		n, from, err := unix.Recvfrom(s.fd, buf, 0)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			s.sawRecvFailure = true
			s.notifyError(false, errnoOf(err), "Recvfrom failed.")
			return err
		}
		if n == 0 {
			s.sawRecvFailure = true
			s.notifyError(false, errConnReset, "Recvfrom failed.")
			return unix.ECONNRESET
		}

		if s.mtr != nil {
			s.mtr.IncDatagramsReceived()
		}
		fromIP, fromPort := sockaddrToIPPort(from)
		s.sink.Post(api.Event{
			SessionID:     s.id,
			Reason:        api.ReasonDatagram,
			Data:          append([]byte(nil), buf[:n]...),
			ArrivalTimeUs: s.nowUs(),
			FromAddr:      fromIP,
			FromPort:      fromPort,
		})
	}
}

func (s *Session) readStream() error {
	var tmp [streamReadChunk]byte
	n, err := unix.Read(s.fd, tmp[:])
	if err == unix.EINTR {
		return nil
	}
	if err == unix.EAGAIN {
		// No bytes this round, but still drain anything already framed.
	} else if err != nil {
		s.sawRecvFailure = true
		s.notifyError(false, errnoOf(err), "Recv failed.")
		return err
	} else if n == 0 {
		s.sawRecvFailure = true
		s.notifyError(false, errConnReset, "Recv failed.")
		return unix.ECONNRESET
	} else {
		s.inbound = append(s.inbound, tmp[:n]...)
	}

	if !s.isRTSPFraming {
		s.drainLengthPrefixed()
		return nil
	}
	return s.drainRTSPFraming()
}

// drainLengthPrefixed decodes 16-bit big-endian length-prefixed datagrams
// from the inbound stream buffer (§4.1, non-RTSP-framed Connected state).
func (s *Session) drainLengthPrefixed() {
	for len(s.inbound) >= 2 {
		packetSize := int(binary.BigEndian.Uint16(s.inbound[:2]))
		if len(s.inbound) < packetSize+2 {
			return
		}
		payload := append([]byte(nil), s.inbound[2:2+packetSize]...)
		s.sink.Post(api.Event{
			SessionID: s.id,
			Reason:    api.ReasonDatagram,
			Data:      payload,
		})
		s.inbound = s.inbound[packetSize+2:]
	}
}

// drainRTSPFraming decodes interleaved binary frames and RTSP text messages
// from the inbound stream buffer (§4.1, RTSP-framed Connected state).
func (s *Session) drainRTSPFraming() error {
	for {
		if len(s.inbound) > 0 && s.inbound[0] == '$' {
			if len(s.inbound) < 4 {
				return nil
			}
			channel := int(s.inbound[1])
			length := int(binary.BigEndian.Uint16(s.inbound[2:4]))
			if len(s.inbound) < 4+length {
				return nil
			}
			payload := append([]byte(nil), s.inbound[4:4+length]...)
			s.sink.Post(api.Event{
				SessionID:     s.id,
				Reason:        api.ReasonBinaryData,
				Channel:       channel,
				Data:          payload,
				ArrivalTimeUs: s.nowUs(),
			})
			s.inbound = s.inbound[4+length:]
			continue
		}

		msg, consumed, status := s.parser.Parse(s.inbound)
		if status == api.ParseIncomplete {
			return nil
		}

		if status == api.ParseOK && bytes.Equal(msg.Content, wfdIDRRequest) &&
			len(s.inbound) >= consumed+2 &&
			s.inbound[consumed] == '\r' && s.inbound[consumed+1] == '\n' {
			consumed += 2
		}

		s.sink.Post(api.Event{
			SessionID: s.id,
			Reason:    api.ReasonData,
			Message:   msg,
		})

		s.inbound = s.inbound[consumed:]

		if status == api.ParseMalformed {
			s.sawRecvFailure = true
			s.notifyError(false, -1, "Recv failed.")
			return nil
		}
	}
}

// WriteMore performs one round of non-blocking writes (§4.1 writeMore).
func (s *Session) WriteMore() error {
	switch s.state {
	case Connecting:
		return s.writeConnecting()
	case Datagram:
		return s.writeDatagram()
	default:
		return s.writeStream()
	}
}

func (s *Session) writeConnecting() error {
	errno, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		s.sawSendFailure = true
		s.notifyError(true, errnoOf(err), "Connection failed")
		return err
	}
	if errno != 0 {
		s.sawSendFailure = true
		e := unix.Errno(errno)
		s.notifyError(true, -errno, "Connection failed")
		return e
	}
	s.state = Connected
	s.sink.Post(api.Event{SessionID: s.id, Reason: api.ReasonConnected})
	return nil
}

func (s *Session) writeDatagram() error {
	for s.outboundDgrams.Length() > 0 {
		head := s.outboundDgrams.Peek().([]byte)

		if rtp.IsRewritable(head) {
			rtp.RewriteTimestamp(head, s.nowUs())
		}

		n, err := unix.Write(s.fd, head)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			s.sawSendFailure = true
			s.notifyError(true, errnoOf(err), "Send datagram failed.")
			return err
		}
		if n == 0 {
			s.sawSendFailure = true
			s.notifyError(true, errConnReset, "Send datagram failed.")
			return unix.ECONNRESET
		}
		s.outboundDgrams.Remove()
		if s.mtr != nil {
			s.mtr.IncDatagramsSent()
		}
	}
	return nil
}

func (s *Session) writeStream() error {
	if len(s.outboundStream) == 0 {
		return nil
	}
	n, err := unix.Write(s.fd, s.outboundStream)
	if err == unix.EINTR {
		return nil
	}
	if err == unix.EAGAIN {
		return nil
	}
	if err != nil {
		s.sawSendFailure = true
		s.notifyError(true, errnoOf(err), "Send failed.")
		return err
	}
	if n == 0 {
		s.sawSendFailure = true
		s.notifyError(true, errConnReset, "Send failed.")
		return unix.ECONNRESET
	}
	s.outboundStream = s.outboundStream[n:]
	return nil
}

// SendRequest queues data for eventual transmission (§4.1 sendRequest).
func (s *Session) SendRequest(data []byte) error {
	switch s.state {
	case Datagram:
		s.outboundDgrams.Add(append([]byte(nil), data...))
		return nil
	case Connected:
		if !s.isRTSPFraming {
			if len(data) > 65535 {
				return api.ErrInvalidState
			}
			var prefix [2]byte
			binary.BigEndian.PutUint16(prefix[:], uint16(len(data)))
			s.outboundStream = append(s.outboundStream, prefix[:]...)
		}
		s.outboundStream = append(s.outboundStream, data...)
		return nil
	default:
		return api.ErrInvalidState
	}
}

// Close closes the owned socket exactly once.
func (s *Session) Close() error {
	if s.fd < 0 {
		return nil
	}
	fd := s.fd
	s.fd = -1
	return unix.Close(fd)
}
