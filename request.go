// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"fmt"
	"strings"
)

// Mode selects the framing discipline of a [ReadRequest].
type Mode int

const (
	// ModeLength reads exactly [ReadRequest.Length] bytes, or fewer if the
	// stream ends or times out first.
	ModeLength Mode = iota + 1

	// ModeUnbounded reads until the peer closes or the timeout elapses.
	ModeUnbounded

	// ModeLine reads a single line of at most [BufferSize] bytes.
	ModeLine

	// ModeChunked decodes the RFC 2616 §3.6.1 chunked transfer coding.
	ModeChunked

	// ModeUntilFullLine reads lines until one equals the delimiter. The
	// delimiter line is consumed but not emitted.
	ModeUntilFullLine

	// ModeUntilInStr reads lines until one contains the delimiter
	// (case-insensitive). The matching line is emitted whole.
	ModeUntilInStr

	// ModeUntilInStrCut is like ModeUntilInStr, but only the part of the
	// matching line preceding the delimiter is emitted.
	ModeUntilInStrCut
)

var modeNames = map[Mode]string{
	ModeLength:        "length",
	ModeUnbounded:     "unbounded",
	ModeLine:          "line",
	ModeChunked:       "chunked",
	ModeUntilFullLine: "until-fullcheck",
	ModeUntilInStr:    "until-instr",
	ModeUntilInStrCut: "until-instr-cut",
}

// String implements [fmt.Stringer].
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// usesDelimiter tells whether the mode needs [ReadRequest.Delimiter].
func (m Mode) usesDelimiter() bool {
	return m == ModeUntilFullLine || m == ModeUntilInStr || m == ModeUntilInStrCut
}

// ParseMode maps a mode name to a [Mode].
//
// Besides the names returned by [Mode.String], "until" is accepted as an
// alias of "until-fullcheck". Names are case-insensitive and surrounding
// space is ignored. Unknown names fail with [ErrInvalidRequest].
func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "until" {
		return ModeUntilFullLine, nil
	}
	for mode, mname := range modeNames {
		if mname == name {
			return mode, nil
		}
	}
	return 0, newError("parseMode", DefaultRID, ErrInvalidRequest, fmt.Sprintf("unknown mode %q", name), nil)
}

// ReadRequest tells [*Engine.Read] how to frame the incoming bytes.
//
// Use the *Request constructors, which always build valid requests.
type ReadRequest struct {
	// Mode is the framing discipline.
	Mode Mode

	// Length is the number of bytes wanted by [ModeLength].
	Length int64

	// Delimiter is used by the ModeUntil* modes.
	Delimiter []byte
}

// LengthRequest reads n bytes.
func LengthRequest(n int64) ReadRequest {
	return ReadRequest{Mode: ModeLength, Length: n}
}

// UnboundedRequest reads until end-of-stream or timeout.
func UnboundedRequest() ReadRequest {
	return ReadRequest{Mode: ModeUnbounded}
}

// LineRequest reads one line.
func LineRequest() ReadRequest {
	return ReadRequest{Mode: ModeLine}
}

// ChunkedRequest decodes a chunked body.
func ChunkedRequest() ReadRequest {
	return ReadRequest{Mode: ModeChunked}
}

// UntilLineRequest reads lines until one equals delim.
//
// With delim set to [CRLF] this reads a header block up to the empty line.
func UntilLineRequest(delim string) ReadRequest {
	return ReadRequest{Mode: ModeUntilFullLine, Delimiter: []byte(delim)}
}

// UntilInStrRequest reads lines until one contains delim.
func UntilInStrRequest(delim string) ReadRequest {
	return ReadRequest{Mode: ModeUntilInStr, Delimiter: []byte(delim)}
}

// UntilInStrCutRequest reads lines until one contains delim and drops
// everything from delim onwards on that line.
func UntilInStrCutRequest(delim string) ReadRequest {
	return ReadRequest{Mode: ModeUntilInStrCut, Delimiter: []byte(delim)}
}

// Validate returns an error wrapping [ErrInvalidRequest] when the request
// has an unknown mode, a negative length, or lacks a required delimiter.
func (req ReadRequest) Validate() error {
	if _, ok := modeNames[req.Mode]; !ok {
		return newError("read", DefaultRID, ErrInvalidRequest, req.Mode.String(), nil)
	}
	if req.Mode == ModeLength && req.Length < 0 {
		return newError("read", DefaultRID, ErrInvalidRequest, fmt.Sprintf("negative length %d", req.Length), nil)
	}
	if req.Mode.usesDelimiter() && len(req.Delimiter) == 0 {
		return newError("read", DefaultRID, ErrInvalidRequest, req.Mode.String()+" without delimiter", nil)
	}
	return nil
}

// Outcome tells how a framed read ended.
type Outcome int

const (
	// OutcomeComplete means the framing itself ended the read: the length
	// was satisfied, the delimiter was found, a line was read, or the
	// last chunk arrived.
	OutcomeComplete Outcome = iota

	// OutcomeEOF means the peer closed the stream.
	OutcomeEOF

	// OutcomeTimeout means no data arrived within the connection timeout.
	OutcomeTimeout
)

// String implements [fmt.Stringer].
func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeEOF:
		return "eof"
	case OutcomeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result describes a finished framed read.
type Result struct {
	// Mode is the framing mode that was used.
	Mode Mode

	// Outcome tells why the read stopped.
	Outcome Outcome

	// BytesRead is the number of decoded bytes delivered to the sink.
	BytesRead int64

	// Requested is the length asked by a [ModeLength] request.
	Requested int64

	// Data holds the decoded bytes when the sink is [BufferSink].
	Data []byte
}

// Truncated reports whether a [ModeLength] read delivered fewer bytes
// than requested because the stream ended or timed out.
func (r *Result) Truncated() bool {
	return r.Mode == ModeLength && r.BytesRead < r.Requested
}
