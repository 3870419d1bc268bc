// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/bassosimone/safeconn"
)

// RID identifies a logical connection of an [*Engine].
//
// RIDs are chosen by the caller and are opaque to the engine.
type RID string

// DefaultRID is the implicit connection used when callers do not need
// more than one.
const DefaultRID RID = ""

// Connection is one live connection owned by an [*Engine].
//
// A Connection is not safe for concurrent use: callers must serialize
// all operations targeting the same [RID].
type Connection struct {
	blocking   bool
	conn       net.Conn
	endpoint   Endpoint
	persistent bool
	poll       time.Duration
	reader     *bufio.Reader
	rid        RID
	spanID     string
	timeNow    func() time.Time
	timeout    time.Duration
}

// RID returns the connection identifier.
func (c *Connection) RID() RID {
	return c.rid
}

// Endpoint returns the endpoint this connection was dialed with.
func (c *Connection) Endpoint() Endpoint {
	return c.endpoint
}

// SpanID returns the span ID attached to this connection's log events.
func (c *Connection) SpanID() string {
	return c.spanID
}

// Blocking tells whether reads wait up to the timeout for data.
func (c *Connection) Blocking() bool {
	return c.blocking
}

// Persistent tells whether the connection survives [*Engine.Disconnect].
func (c *Connection) Persistent() bool {
	return c.persistent
}

// Timeout returns the I/O timeout.
func (c *Connection) Timeout() time.Duration {
	return c.timeout
}

// logAttrs returns the attributes identifying this connection in log events.
func (c *Connection) logAttrs(extra ...any) []any {
	return append([]any{
		slog.String("localAddr", safeconn.LocalAddr(c.conn)),
		slog.String("protocol", safeconn.Network(c.conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(c.conn)),
		slog.String("rid", string(c.rid)),
		slog.String("spanID", c.spanID),
	}, extra...)
}

// readDeadline returns the deadline for the next read given the mode.
func (c *Connection) readDeadline() time.Time {
	switch {
	case !c.blocking:
		return c.timeNow().Add(c.poll)
	case c.timeout > 0:
		return c.timeNow().Add(c.timeout)
	default:
		return time.Time{}
	}
}

func (c *Connection) armRead() error {
	return c.conn.SetReadDeadline(c.readDeadline())
}

// readStatus classifies the result of a primitive read.
type readStatus int

const (
	statusData readStatus = iota
	statusEOF
	statusTimeout
)

// outcome maps a terminal read status to the [Outcome] of a framed read.
func (s readStatus) outcome() Outcome {
	switch s {
	case statusEOF:
		return OutcomeEOF
	case statusTimeout:
		return OutcomeTimeout
	default:
		return OutcomeComplete
	}
}

// classifyRead turns the error of a read into a status, or into an error
// when the read failed for reasons other than end-of-stream or timeout.
func classifyRead(n int, err error) (readStatus, error) {
	switch {
	case n > 0:
		return statusData, nil
	case err == nil:
		// An empty read without error still ends the loop.
		return statusEOF, nil
	case errors.Is(err, io.EOF):
		return statusEOF, nil
	case isTimeout(err):
		return statusTimeout, nil
	default:
		return statusEOF, err
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// readSome performs a single read of at most max bytes (and never more
// than [BufferSize]). The returned slice is owned by the caller.
func (c *Connection) readSome(max int64) ([]byte, readStatus, error) {
	if max > BufferSize {
		max = BufferSize
	}
	if err := c.armRead(); err != nil {
		return nil, statusEOF, err
	}
	buf := make([]byte, max)
	n, err := c.reader.Read(buf)
	status, err := classifyRead(n, err)
	return buf[:n], status, err
}

// readLine reads up to and including the next newline. A line is also
// returned without newline when the buffer fills up, with [statusData],
// or when the stream ends or times out after some bytes were received,
// with the terminal status. The returned slice is owned by the caller.
func (c *Connection) readLine() ([]byte, readStatus, error) {
	if err := c.armRead(); err != nil {
		return nil, statusEOF, err
	}
	line, err := c.reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		err = nil
	}
	n := len(line)
	if err != nil {
		// The line is incomplete.
		n = 0
	}
	status, err := classifyRead(n, err)
	return append([]byte(nil), line...), status, err
}

// write writes all of data honoring the connection timeout.
func (c *Connection) write(data []byte) error {
	var deadline time.Time
	if c.timeout > 0 {
		deadline = c.timeNow().Add(c.timeout)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	for len(data) > 0 {
		n, err := c.conn.Write(data)
		if err != nil {
			return err
		}
		if n <= 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}
