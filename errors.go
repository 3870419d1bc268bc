// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by an [*Engine] operation wraps exactly
// one of these, so callers can dispatch with [errors.Is].
var (
	// ErrConnectionFailed means a connect attempt did not yield a live connection.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrBlockingModeFailed means the connection rejected a blocking mode change.
	ErrBlockingModeFailed = errors.New("cannot change blocking mode")

	// ErrTimeoutRejected means the connection rejected a new I/O timeout.
	ErrTimeoutRejected = errors.New("cannot set timeout")

	// ErrWriteDenied means the underlying write failed.
	ErrWriteDenied = errors.New("write denied")

	// ErrReadDenied means the underlying read failed with something other
	// than end-of-stream or a timeout.
	ErrReadDenied = errors.New("read denied")

	// ErrFileAlreadyExists means the target of a file sink already exists.
	ErrFileAlreadyExists = errors.New("file already exists")

	// ErrFileWrite means writing decoded bytes to a file sink failed.
	ErrFileWrite = errors.New("file write failed")

	// ErrChunkedDecode means a chunk-size line is not a hexadecimal integer.
	ErrChunkedDecode = errors.New("chunked decode error")

	// ErrInvalidRequest means a [ReadRequest] cannot be executed.
	ErrInvalidRequest = errors.New("invalid read request")

	// ErrNotConnected means the rid has neither a live connection nor an
	// [Endpoint] to open one with.
	ErrNotConnected = errors.New("not connected")
)

// Error is the error type returned by [*Engine] operations.
//
// Use [errors.Is] with one of the Err* kinds to classify it; the
// underlying cause, if any, is also reachable through [errors.Is]
// and [errors.As].
type Error struct {
	// Op is the operation that failed (e.g., "connect", "read").
	Op string

	// RID identifies the connection the operation applied to.
	RID RID

	// Kind is one of the Err* sentinels of this package.
	Kind error

	// Detail is optional context such as "host:port" or a file path.
	Detail string

	// Err is the underlying cause, possibly nil.
	Err error
}

func newError(op string, rid RID, kind error, detail string, err error) *Error {
	return &Error{Op: op, RID: rid, Kind: kind, Detail: detail, Err: err}
}

// Error implements error.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("framer: ")
	sb.WriteString(e.Op)
	if e.RID != DefaultRID {
		sb.WriteString(" [")
		sb.WriteString(string(e.RID))
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the error kind and, when present, the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
