// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/runtimex"
)

// NewEngine returns a new [*Engine] without connections.
//
// The cfg argument contains the common configuration for framer operations.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewEngine(cfg *Config, logger SLogger) *Engine {
	runtimex.Assert(cfg != nil)
	runtimex.Assert(logger != nil)
	return &Engine{
		DialFunc:      Compose2[Endpoint, net.Conn, net.Conn](NewConnectFunc(cfg, logger), NewObserveConnFunc(cfg, logger)),
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		PollInterval:  cfg.PollInterval,
		Timeout:       cfg.Timeout,
		TimeNow:       cfg.TimeNow,
		conns:         make(map[RID]*Connection),
		endpoints:     make(map[RID]Endpoint),
	}
}

// Engine owns a set of named connections and reads framed payloads
// from them.
//
// Operations targeting different [RID] values may run concurrently.
// Operations targeting the same RID must be serialized by the caller.
//
// All exported fields are safe to modify after construction but before
// first use.
type Engine struct {
	// DialFunc opens the connection of an [Endpoint].
	//
	// Set by [NewEngine] to a [*ConnectFunc] followed by an [*ObserveConnFunc].
	DialFunc Func[Endpoint, net.Conn]

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewEngine] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewEngine] to the user-provided logger.
	Logger SLogger

	// PollInterval is the read wait of non-blocking connections.
	//
	// Set by [NewEngine] from [Config.PollInterval].
	PollInterval time.Duration

	// Timeout is the I/O timeout of endpoints that do not set one.
	//
	// Set by [NewEngine] from [Config.Timeout].
	Timeout time.Duration

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewEngine] from [Config.TimeNow].
	TimeNow func() time.Time

	// mu protects conns and endpoints.
	mu sync.Mutex

	// conns contains the live connections.
	conns map[RID]*Connection

	// endpoints remembers where each rid connects, including after
	// [*Engine.Disconnect], so that a later read or write can reconnect.
	endpoints map[RID]Endpoint
}

// Connection returns the live connection of rid, if any.
func (e *Engine) Connection(rid RID) (*Connection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.conns[rid]
	return c, ok
}

// Register records the endpoint of rid without connecting. The first
// [*Engine.Write] or [*Engine.Read] on rid opens the connection.
func (e *Engine) Register(rid RID, ep Endpoint) {
	e.mu.Lock()
	e.endpoints[rid] = ep
	e.mu.Unlock()
}

// acquire returns the live connection of rid, opening it with the
// registered endpoint when there is none.
func (e *Engine) acquire(ctx context.Context, op string, rid RID) (*Connection, error) {
	e.mu.Lock()
	c, live := e.conns[rid]
	ep, known := e.endpoints[rid]
	e.mu.Unlock()
	if live {
		return c, nil
	}
	if !known {
		return nil, newError(op, rid, ErrNotConnected, "no endpoint registered", nil)
	}
	return e.open(ctx, rid, ep)
}

// open dials ep and stores the resulting connection under rid.
func (e *Engine) open(ctx context.Context, rid RID, ep Endpoint) (*Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError("connect", rid, ErrConnectionFailed, ep.Address(), err)
	}
	conn, err := e.DialFunc.Call(ctx, ep)
	if err != nil {
		return nil, newError("connect", rid, ErrConnectionFailed, ep.Address(), err)
	}
	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = e.Timeout
	}
	c := &Connection{
		blocking:   true,
		conn:       conn,
		endpoint:   ep,
		persistent: ep.Persistent,
		poll:       e.PollInterval,
		reader:     bufio.NewReaderSize(conn, BufferSize),
		rid:        rid,
		spanID:     NewSpanID(),
		timeNow:    e.TimeNow,
		timeout:    timeout,
	}

	// Apply the timeout and force blocking mode before the first use.
	if err := c.armRead(); err != nil {
		conn.Close()
		return nil, newError("connect", rid, ErrBlockingModeFailed, ep.Address(), err)
	}

	e.mu.Lock()
	e.conns[rid] = c
	e.mu.Unlock()
	return c, nil
}

// forget removes c from the live connections and closes it.
func (e *Engine) forget(c *Connection) error {
	e.mu.Lock()
	if e.conns[c.rid] == c {
		delete(e.conns, c.rid)
	}
	e.mu.Unlock()
	err := c.conn.Close()
	e.Logger.Info("disconnect", c.logAttrs(
		slog.Any("err", err),
		slog.String("errClass", e.ErrClassifier.Classify(err)),
		slog.Time("t", e.TimeNow()),
	)...)
	return err
}

// Close disconnects every connection that is not persistent.
//
// Persistent connections stay open and usable.
func (e *Engine) Close() error {
	e.mu.Lock()
	victims := make([]*Connection, 0, len(e.conns))
	for _, c := range e.conns {
		if !c.persistent {
			victims = append(victims, c)
		}
	}
	e.mu.Unlock()

	var errs []error
	for _, c := range victims {
		if err := e.forget(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
