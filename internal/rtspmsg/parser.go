// Package rtspmsg is the default implementation of api.Parser: a minimal
// RTSP request/response line-and-header scanner over a caller-owned byte
// slice. Session treats this package as an external collaborator (§2) —
// swap in another api.Parser implementation without touching session code.
package rtspmsg

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/miracast-wfd/netsession/api"
)

// Default is the package-level Parser most callers use.
var Default api.Parser = New()

type parser struct{}

// New returns the default RTSP text parser.
func New() api.Parser {
	return parser{}
}

// Parse implements api.Parser. It scans buf for a request or response line,
// a CRLF-terminated header block, and — when Content-Length is present — a
// body of exactly that many bytes. It never consumes more than one message.
func (parser) Parse(buf []byte) (msg *api.ParsedMessage, consumed int, status api.ParseStatus) {
	headerEnd := bytes.Index(buf, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		return nil, 0, api.ParseIncomplete
	}
	headerBlock := buf[:headerEnd]
	lines := strings.Split(string(headerBlock), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return &api.ParsedMessage{ParseErr: errMalformed("empty start line")},
			headerEnd + 4, api.ParseMalformed
	}

	m := &api.ParsedMessage{Headers: make(map[string]string)}
	if err := parseStartLine(lines[0], m); err != nil {
		m.ParseErr = err
		return m, headerEnd + 4, api.ParseMalformed
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		sep := strings.IndexByte(line, ':')
		if sep < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:sep]))
		val := strings.TrimSpace(line[sep+1:])
		m.Headers[key] = val
	}

	bodyStart := headerEnd + 4
	contentLen := 0
	if cl, ok := m.Headers["content-length"]; ok {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 {
			m.ParseErr = errMalformed("invalid Content-Length")
			return m, bodyStart, api.ParseMalformed
		}
		contentLen = n
	}

	if len(buf) < bodyStart+contentLen {
		return nil, 0, api.ParseIncomplete
	}

	m.Content = append([]byte(nil), buf[bodyStart:bodyStart+contentLen]...)
	return m, bodyStart + contentLen, api.ParseOK
}

func parseStartLine(line string, m *api.ParsedMessage) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return errMalformed("short start line")
	}
	if strings.HasPrefix(fields[0], "RTSP/") {
		code, err := strconv.Atoi(fields[1])
		if err != nil {
			return errMalformed("bad status code")
		}
		m.StatusCode = code
		return nil
	}
	m.Method = fields[0]
	m.URI = fields[1]
	return nil
}

type parseError string

func (e parseError) Error() string { return string(e) }

func errMalformed(detail string) error {
	return parseError("rtspmsg: malformed message: " + detail)
}
