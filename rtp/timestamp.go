// Package rtp implements the single outbound transform the core applies to
// UDP datagrams before sending them: rewriting the RTP timestamp field of
// recognizable RTP/payload-type-33 packets to the current time, expressed
// on the 90kHz RTP clock (§6). Grounded verbatim on the arithmetic in
// ANetworkSession::Session::writeMore's datagram branch.
package rtp

import "encoding/binary"

// payloadType33 marks RTP packets this core rewrites the timestamp of; 33
// is the static RTP payload type for an MPEG-2 transport stream, which is
// what Wi-Fi Display carries its H.264 media in.
const payloadType33 = 33

// IsRewritable reports whether data looks like an RTP packet with payload
// type 33: version 2 (top two bits of byte 0 are "10", byte 0 == 0x80 with
// no padding/extension/CSRC bits set) and the low 7 bits of byte 1 equal
// payloadType33.
func IsRewritable(data []byte) bool {
	return len(data) >= 8 && data[0] == 0x80 && data[1]&0x7f == payloadType33
}

// RewriteTimestamp overwrites bytes 4..7 of data (the RTP timestamp field)
// with the current time expressed on the 90kHz RTP clock, derived from
// nowUs (monotonic microseconds). data must be at least 8 bytes; callers
// should guard with IsRewritable first.
func RewriteTimestamp(data []byte, nowUs int64) {
	rtpTime := uint32((nowUs * 9) / 100)
	binary.BigEndian.PutUint32(data[4:8], rtpTime)
}
