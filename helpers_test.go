// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// messages returns the messages of the captured records.
func messages(records []slog.Record) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Message)
	}
	return out
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr], [safeconn.RemoteAddr], and [safeconn.Network]
// during construction.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}

// readStep is one scripted result of [net.Conn.Read].
type readStep struct {
	// data is returned first, possibly across several reads when the
	// caller's buffer is smaller.
	data string

	// err is returned by the read following data, or immediately when
	// data is empty.
	err error
}

// errTimeout is what a read returns when its deadline expires.
var errTimeout = os.ErrDeadlineExceeded

// scriptedConn is a [*netstub.FuncConn] replaying read steps and
// recording writes, deadlines and closes.
type scriptedConn struct {
	*netstub.FuncConn
	closed        int
	readDeadlines []time.Time
	written       []byte
}

// newScriptedConn returns a conn whose reads replay steps in order and
// then return [io.EOF] forever.
func newScriptedConn(steps ...readStep) *scriptedConn {
	sc := &scriptedConn{FuncConn: newMinimalConn()}
	sc.ReadFunc = func(b []byte) (int, error) {
		for len(steps) > 0 {
			step := &steps[0]
			if step.data != "" {
				n := copy(b, step.data)
				step.data = step.data[n:]
				if step.data == "" && step.err == nil {
					steps = steps[1:]
				}
				return n, nil
			}
			steps = steps[1:]
			if step.err != nil {
				return 0, step.err
			}
		}
		return 0, io.EOF
	}
	sc.WriteFunc = func(b []byte) (int, error) {
		sc.written = append(sc.written, b...)
		return len(b), nil
	}
	sc.CloseFunc = func() error {
		sc.closed++
		return nil
	}
	sc.SetReadDeadFunc = func(t time.Time) error {
		sc.readDeadlines = append(sc.readDeadlines, t)
		return nil
	}
	sc.SetWriteDeaFunc = func(t time.Time) error {
		return nil
	}
	return sc
}

// newTestEngine returns an [*Engine] whose dial pipeline yields conns in
// order, with [DefaultRID] registered towards a dummy endpoint. The
// returned counter tracks how many dials happened.
func newTestEngine(logger SLogger, conns ...net.Conn) (*Engine, *int) {
	eng := NewEngine(NewConfig(), logger)
	dials := 0
	eng.DialFunc = FuncAdapter[Endpoint, net.Conn](func(ctx context.Context, ep Endpoint) (net.Conn, error) {
		if dials >= len(conns) {
			return nil, io.ErrUnexpectedEOF
		}
		conn := conns[dials]
		dials++
		return conn, nil
	})
	eng.Register(DefaultRID, Endpoint{Host: "127.0.0.1", Port: 80})
	return eng, &dials
}
