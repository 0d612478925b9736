// File: api/parser.go
//
// The RTSP request/response parser is an external collaborator (§2):
// Session never interprets RTSP grammar itself, it only frames the stream
// and hands complete candidate messages to a Parser.

package api

// ParseStatus is the outcome of one Parser.Parse call.
type ParseStatus int

const (
	// ParseIncomplete means the buffer does not yet hold a full message;
	// the caller should wait for more bytes and retry later.
	ParseIncomplete ParseStatus = iota
	// ParseOK means a complete message was extracted.
	ParseOK
	// ParseMalformed means a complete but invalid message was extracted;
	// the caller still gets it back (with ParseErr set) and Consumed is
	// still the number of bytes that made up the malformed message.
	ParseMalformed
)

// ParsedMessage is the opaque result handed back to Session for a Data
// event. Content is the exact message body used by the wfd_idr_request
// compatibility quirk (§4.1).
type ParsedMessage struct {
	Method     string
	URI        string
	StatusCode int
	Headers    map[string]string
	Content    []byte
	ParseErr   error
}

// Parser extracts one RTSP message from the front of buf, reporting how
// many bytes were consumed. It must never consume more than one message
// per call.
type Parser interface {
	Parse(buf []byte) (msg *ParsedMessage, consumed int, status ParseStatus)
}
