package rtspmsg

import (
	"bytes"
	"testing"

	"github.com/miracast-wfd/netsession/api"
)

func TestParseIncompleteNoTerminator(t *testing.T) {
	msg, consumed, status := New().Parse([]byte("OPTIONS rtsp://host RTSP/1.0\r\nCSeq: 1\r\n"))
	if status != api.ParseIncomplete {
		t.Fatalf("status = %v, want ParseIncomplete", status)
	}
	if msg != nil || consumed != 0 {
		t.Fatalf("expected nil msg and 0 consumed, got %v %d", msg, consumed)
	}
}

func TestParseRequestNoBody(t *testing.T) {
	buf := []byte("OPTIONS rtsp://host RTSP/1.0\r\nCSeq: 1\r\n\r\n")
	msg, consumed, status := New().Parse(buf)
	if status != api.ParseOK {
		t.Fatalf("status = %v, want ParseOK", status)
	}
	if msg.Method != "OPTIONS" || msg.URI != "rtsp://host" {
		t.Errorf("got method=%q uri=%q", msg.Method, msg.URI)
	}
	if msg.Headers["cseq"] != "1" {
		t.Errorf("got headers = %v", msg.Headers)
	}
	if consumed != len(buf) {
		t.Errorf("consumed = %d, want %d", consumed, len(buf))
	}
}

func TestParseResponseWithBody(t *testing.T) {
	buf := []byte("RTSP/1.0 200 OK\r\nCSeq: 2\r\nContent-Length: 5\r\n\r\nhello")
	msg, consumed, status := New().Parse(buf)
	if status != api.ParseOK {
		t.Fatalf("status = %v, want ParseOK", status)
	}
	if msg.StatusCode != 200 {
		t.Errorf("got status code %d", msg.StatusCode)
	}
	if !bytes.Equal(msg.Content, []byte("hello")) {
		t.Errorf("got content %q", msg.Content)
	}
	if consumed != len(buf) {
		t.Errorf("consumed = %d, want %d", consumed, len(buf))
	}
}

func TestParseIncompleteBody(t *testing.T) {
	buf := []byte("RTSP/1.0 200 OK\r\nContent-Length: 10\r\n\r\nhello")
	_, _, status := New().Parse(buf)
	if status != api.ParseIncomplete {
		t.Fatalf("status = %v, want ParseIncomplete", status)
	}
}

func TestParseMalformedContentLength(t *testing.T) {
	buf := []byte("RTSP/1.0 200 OK\r\nContent-Length: bogus\r\n\r\n")
	msg, consumed, status := New().Parse(buf)
	if status != api.ParseMalformed {
		t.Fatalf("status = %v, want ParseMalformed", status)
	}
	if msg.ParseErr == nil {
		t.Error("expected ParseErr to be set")
	}
	if consumed == 0 {
		t.Error("expected non-zero consumed even for malformed message")
	}
}

func TestParseWFDIDRRequestBody(t *testing.T) {
	buf := []byte("SET_PARAMETER rtsp://host RTSP/1.0\r\nCSeq: 3\r\nContent-Length: 17\r\n\r\nwfd_idr_request\r\n\r\n")
	msg, consumed, status := New().Parse(buf)
	if status != api.ParseOK {
		t.Fatalf("status = %v, want ParseOK", status)
	}
	if !bytes.Equal(msg.Content, []byte("wfd_idr_request\r\n")) {
		t.Errorf("got content %q", msg.Content)
	}
	// The parser itself only consumes the declared 17-byte body; the
	// +2 compatibility quirk is applied by the session layer, not here.
	if consumed != len(buf)-2 {
		t.Errorf("consumed = %d, want %d", consumed, len(buf)-2)
	}
}
