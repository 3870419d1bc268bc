// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// Read reads one framed payload from the connection of rid and delivers
// it to sink. The connection is opened first when rid is not live.
//
// End-of-stream and timeouts are not errors: they end the read with
// [OutcomeEOF] or [OutcomeTimeout]. On error, the returned [*Result]
// still describes the bytes delivered before the failure, unless the
// read never started, in which case it is nil.
//
// A file sink whose path exists fails with [ErrFileAlreadyExists]
// before anything is read from the connection.
func (e *Engine) Read(ctx context.Context, rid RID, req ReadRequest, sink Sink) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, withRID(err, rid)
	}
	if err := sink.checkTarget(); err != nil {
		return nil, withRID(err, rid)
	}
	c, err := e.acquire(ctx, "read", rid)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, newError("read", rid, ErrReadDenied, "", err)
	}

	t0 := e.TimeNow()
	e.Logger.Info("frameReadStart", c.logAttrs(
		slog.String("mode", req.Mode.String()),
		slog.String("sink", sink.String()),
		slog.Time("t", t0),
	)...)

	em := newEmitter(sink)
	fr := &framedReader{c: c, em: em}
	outcome, err := fr.run(req)
	if cerr := em.close(); err == nil {
		err = cerr
	}
	err = withRID(err, rid)

	res := &Result{
		Mode:      req.Mode,
		Outcome:   outcome,
		BytesRead: em.count,
		Data:      em.data(),
	}
	if req.Mode == ModeLength {
		res.Requested = req.Length
	}

	e.Logger.Info("frameReadDone", c.logAttrs(
		slog.String("mode", req.Mode.String()),
		slog.String("sink", sink.String()),
		slog.String("outcome", outcome.String()),
		slog.Int64("ioBytesCount", res.BytesRead),
		slog.Any("err", err),
		slog.String("errClass", e.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", e.TimeNow()),
	)...)

	return res, err
}

// withRID attaches rid to errors raised below the engine, which do not know it.
func withRID(err error, rid RID) error {
	var ferr *Error
	if errors.As(err, &ferr) && ferr.RID == DefaultRID {
		ferr.RID = rid
	}
	return err
}

// framedReader runs one framing loop against a connection.
type framedReader struct {
	c  *Connection
	em *emitter
}

func (fr *framedReader) run(req ReadRequest) (Outcome, error) {
	switch req.Mode {
	case ModeLength:
		return fr.length(req.Length)
	case ModeUnbounded:
		return fr.unbounded()
	case ModeLine:
		return fr.line()
	case ModeChunked:
		return fr.chunked()
	case ModeUntilFullLine:
		return fr.untilFullLine(req.Delimiter)
	case ModeUntilInStr:
		return fr.untilInStr(req.Delimiter, false)
	case ModeUntilInStrCut:
		return fr.untilInStr(req.Delimiter, true)
	default:
		return OutcomeComplete, newError("read", DefaultRID, ErrInvalidRequest, req.Mode.String(), nil)
	}
}

func readDenied(err error) error {
	return newError("read", DefaultRID, ErrReadDenied, "", err)
}

// copyN moves up to n bytes from the connection to the sink and returns
// statusData when all of them arrived.
func (fr *framedReader) copyN(n int64) (readStatus, error) {
	for n > 0 {
		data, status, err := fr.c.readSome(n)
		if err != nil {
			return status, readDenied(err)
		}
		if err := fr.em.emit(data); err != nil {
			return status, err
		}
		if status != statusData {
			return status, nil
		}
		n -= int64(len(data))
	}
	return statusData, nil
}

func (fr *framedReader) length(n int64) (Outcome, error) {
	if n == 0 {
		return OutcomeComplete, nil
	}
	status, err := fr.copyN(n)
	return status.outcome(), err
}

func (fr *framedReader) unbounded() (Outcome, error) {
	for {
		data, status, err := fr.c.readSome(BufferSize)
		if err != nil {
			return status.outcome(), readDenied(err)
		}
		if err := fr.em.emit(data); err != nil {
			return OutcomeComplete, err
		}
		if status != statusData {
			return status.outcome(), nil
		}
	}
}

func (fr *framedReader) line() (Outcome, error) {
	data, status, err := fr.c.readLine()
	if err != nil {
		return status.outcome(), readDenied(err)
	}
	if err := fr.em.emit(data); err != nil {
		return OutcomeComplete, err
	}
	return status.outcome(), nil
}

func (fr *framedReader) chunked() (Outcome, error) {
	for {
		line, status, err := fr.c.readLine()
		if err != nil {
			return status.outcome(), readDenied(err)
		}
		if status != statusData {
			return status.outcome(), nil
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		size, err := parseChunkSize(line)
		if err != nil {
			return OutcomeComplete, newError("read", DefaultRID, ErrChunkedDecode, fmt.Sprintf("%q", line), err)
		}
		if size == 0 {
			return OutcomeComplete, nil
		}
		status, err = fr.copyN(size)
		if err != nil || status != statusData {
			return status.outcome(), err
		}
	}
}

// parseChunkSize parses the hexadecimal size of a chunk-size line,
// ignoring chunk extensions.
func parseChunkSize(line []byte) (int64, error) {
	token, _, _ := bytes.Cut(line, []byte(";"))
	token = bytes.TrimSpace(token)
	size, err := strconv.ParseUint(string(token), 16, 63)
	if err != nil {
		return 0, err
	}
	return int64(size), nil
}

func (fr *framedReader) untilFullLine(delim []byte) (Outcome, error) {
	for {
		line, status, err := fr.c.readLine()
		if err != nil {
			return status.outcome(), readDenied(err)
		}
		if len(line) > 0 && bytes.Equal(line, delim) {
			return OutcomeComplete, nil
		}
		if err := fr.em.emit(line); err != nil {
			return OutcomeComplete, err
		}
		if status != statusData {
			return status.outcome(), nil
		}
	}
}

func (fr *framedReader) untilInStr(delim []byte, cut bool) (Outcome, error) {
	for {
		line, status, err := fr.c.readLine()
		if err != nil {
			return status.outcome(), readDenied(err)
		}
		pos := indexFold(line, delim)
		if pos >= 0 && cut {
			line = line[:pos]
		}
		if err := fr.em.emit(line); err != nil {
			return OutcomeComplete, err
		}
		if pos >= 0 {
			return OutcomeComplete, nil
		}
		if status != statusData {
			return status.outcome(), nil
		}
	}
}

// indexFold is like [bytes.Index] but matches case-insensitively.
func indexFold(s, sep []byte) int {
	n := len(sep)
	for i := 0; i+n <= len(s); i++ {
		if bytes.EqualFold(s[i:i+n], sep) {
			return i
		}
	}
	return -1
}
