// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Connect opens the connection of rid unless it is already live, in which
// case it does nothing. The endpoint is remembered so that rid can be
// reopened by a later read or write after [*Engine.Disconnect].
//
// A new connection starts in blocking mode with the endpoint timeout (or
// [Engine.Timeout] when the endpoint does not set one).
//
// Failures wrap [ErrConnectionFailed].
func (e *Engine) Connect(ctx context.Context, rid RID, ep Endpoint) error {
	e.Register(rid, ep)
	_, err := e.acquire(ctx, "connect", rid)
	return err
}

// Disconnect closes and forgets the connection of rid.
//
// Persistent connections and rids without a live connection are left
// alone. The returned error, if any, is the one of closing the socket.
func (e *Engine) Disconnect(rid RID) error {
	c, ok := e.Connection(rid)
	if !ok || c.persistent {
		return nil
	}
	return e.forget(c)
}

// SetBlocking switches the blocking mode of the live connection of rid.
//
// In blocking mode reads wait up to the connection timeout. Otherwise
// they wait at most [Engine.PollInterval]. Failures wrap
// [ErrBlockingModeFailed], or [ErrNotConnected] when rid is not live.
func (e *Engine) SetBlocking(rid RID, on bool) error {
	c, ok := e.Connection(rid)
	if !ok {
		return newError("setBlocking", rid, ErrNotConnected, "", nil)
	}
	return e.setBlocking(c, on)
}

func (e *Engine) setBlocking(c *Connection, on bool) error {
	c.blocking = on
	err := c.armRead()
	e.Logger.Info("setBlocking", c.logAttrs(
		slog.Bool("blocking", on),
		slog.Any("err", err),
		slog.String("errClass", e.ErrClassifier.Classify(err)),
		slog.Time("t", e.TimeNow()),
	)...)
	if err != nil {
		return newError("setBlocking", c.rid, ErrBlockingModeFailed, "", err)
	}
	return nil
}

// SetTimeout changes the I/O timeout of the live connection of rid. Zero
// disables the timeout. Failures wrap [ErrTimeoutRejected], or
// [ErrNotConnected] when rid is not live.
func (e *Engine) SetTimeout(rid RID, timeout time.Duration) error {
	c, ok := e.Connection(rid)
	if !ok {
		return newError("setTimeout", rid, ErrNotConnected, "", nil)
	}
	c.timeout = timeout
	err := c.armRead()
	e.Logger.Info("setTimeout", c.logAttrs(
		slog.Duration("timeout", timeout),
		slog.Any("err", err),
		slog.String("errClass", e.ErrClassifier.Classify(err)),
		slog.Time("t", e.TimeNow()),
	)...)
	if err != nil {
		return newError("setTimeout", rid, ErrTimeoutRejected, timeout.String(), err)
	}
	return nil
}

// Clear discards whatever the peer already sent on the connection of rid,
// so that stale bytes of a previous response cannot corrupt the next one.
// It returns the number of bytes discarded.
//
// Clear never connects: it does nothing when rid is not live. It drains
// in non-blocking mode, reading [BufferSize] bytes at a time until a read
// returns nothing, and always restores blocking mode before returning.
func (e *Engine) Clear(rid RID) (count int64, err error) {
	c, ok := e.Connection(rid)
	if !ok {
		return 0, nil
	}

	t0 := e.TimeNow()
	e.Logger.Info("clearStart", c.logAttrs(slog.Time("t", t0))...)
	defer func() {
		e.Logger.Info("clearDone", c.logAttrs(
			slog.Int64("ioBytesCount", count),
			slog.Any("err", err),
			slog.String("errClass", e.ErrClassifier.Classify(err)),
			slog.Time("t0", t0),
			slog.Time("t", e.TimeNow()),
		)...)
	}()

	// Bytes already buffered by a previous line read count as stale too.
	discarded, _ := c.reader.Discard(c.reader.Buffered())
	count = int64(discarded)

	if err := e.setBlocking(c, false); err != nil {
		// Leave the baseline intact even if the switch half-succeeded.
		return count, errors.Join(err, e.setBlocking(c, true))
	}
	defer func() {
		if rerr := e.setBlocking(c, true); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	for {
		data, status, rerr := c.readSome(BufferSize)
		count += int64(len(data))
		if rerr != nil {
			return count, newError("clear", rid, ErrReadDenied, "", rerr)
		}
		if status != statusData {
			return count, nil
		}
	}
}

// Write writes all of data to the connection of rid, connecting first
// if needed. Failures wrap [ErrWriteDenied], or the errors of
// [*Engine.Connect] when connecting fails.
func (e *Engine) Write(ctx context.Context, rid RID, data []byte) error {
	c, err := e.acquire(ctx, "write", rid)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return newError("write", rid, ErrWriteDenied, "", err)
	}
	if err := c.write(data); err != nil {
		return newError("write", rid, ErrWriteDenied, "", err)
	}
	return nil
}
