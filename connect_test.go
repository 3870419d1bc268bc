// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewConnectFunc populates all fields from Config and the provided logger.
func TestNewConnectFunc(t *testing.T) {
	cfg := NewConfig()
	logger := DefaultSLogger()

	fn := NewConnectFunc(cfg, logger)

	require.NotNil(t, fn)
	assert.NotNil(t, fn.Dialer)
	assert.NotNil(t, fn.Logger)
	assert.NotNil(t, fn.TimeNow)
	assert.NotNil(t, fn.ErrClassifier)
	assert.Equal(t, DefaultTimeout, fn.Timeout)
}

// Call dials the endpoint over TCP and returns a net.Conn or an error.
func TestConnectFunc(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// dialer is the mock dialer to use.
		dialer *netstub.FuncDialer

		// endpoint is the target endpoint.
		endpoint Endpoint

		// wantErr indicates whether we expect an error.
		wantErr bool
	}{
		{
			name: "successful connect",
			dialer: &netstub.FuncDialer{
				DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
					if network != "tcp" || address != "93.184.216.34:80" {
						return nil, errors.New("unexpected network or address")
					}
					conn := newMinimalConn()
					conn.CloseFunc = func() error { return nil }
					conn.LocalAddrFunc = func() net.Addr {
						return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 54321}
					}
					conn.RemoteAddrFunc = func() net.Addr {
						return &net.TCPAddr{IP: net.IPv4(93, 184, 216, 34), Port: 80}
					}
					return conn, nil
				},
			},
			endpoint: Endpoint{Host: "93.184.216.34", Port: 80},
			wantErr:  false,
		},

		{
			name: "dial error",
			dialer: &netstub.FuncDialer{
				DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
					return nil, errors.New("connection refused")
				},
			},
			endpoint: Endpoint{Host: "93.184.216.34", Port: 80},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Dialer = tt.dialer

			fn := NewConnectFunc(cfg, DefaultSLogger())
			conn, err := fn.Call(context.Background(), tt.endpoint)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, conn)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, conn)
			conn.Close()
		})
	}
}

// Call bounds the dial with the endpoint timeout.
func TestConnectFuncEndpointTimeout(t *testing.T) {
	cfg := NewConfig()
	const timeout = 2 * time.Second
	dialCalled := false
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			dialCalled = true
			deadline, ok := ctx.Deadline()
			assert.True(t, ok, "context should have a deadline from the endpoint")
			assert.True(t, time.Until(deadline) <= timeout)
			return nil, errors.New("expected error")
		},
	}

	fn := NewConnectFunc(cfg, DefaultSLogger())
	_, _ = fn.Call(context.Background(), Endpoint{Host: "10.0.0.1", Port: 80, Timeout: timeout})

	assert.True(t, dialCalled)
}

// Call bounds the dial with the default timeout when the endpoint has none.
func TestConnectFuncDefaultTimeout(t *testing.T) {
	cfg := NewConfig()
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok, "context should have the default deadline")
			assert.True(t, time.Until(deadline) <= DefaultTimeout)
			return nil, errors.New("expected error")
		},
	}

	fn := NewConnectFunc(cfg, DefaultSLogger())
	_, err := fn.Call(context.Background(), Endpoint{Host: "10.0.0.1", Port: 80})

	require.Error(t, err)
}

// Call leaves the caller's context alone when no timeout applies.
func TestConnectFuncNoTimeout(t *testing.T) {
	cfg := NewConfig()
	cfg.Timeout = 0
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			_, ok := ctx.Deadline()
			assert.False(t, ok)
			return nil, errors.New("expected error")
		},
	}

	fn := NewConnectFunc(cfg, DefaultSLogger())
	_, err := fn.Call(context.Background(), Endpoint{Host: "10.0.0.1", Port: 80})

	require.Error(t, err)
}

// Call fails when the caller's context is already done.
func TestConnectFuncExpiredContext(t *testing.T) {
	cfg := NewConfig()
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.New("should not reach here")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := NewConnectFunc(cfg, DefaultSLogger())
	_, err := fn.Call(ctx, Endpoint{Host: "10.0.0.1", Port: 80})

	require.ErrorIs(t, err, context.Canceled)
}

// Call emits connectStart/connectDone log events.
func TestConnectFuncLogging(t *testing.T) {
	logger, records := newCapturingLogger()

	cfg := NewConfig()
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			conn := newMinimalConn()
			conn.CloseFunc = func() error { return nil }
			return conn, nil
		},
	}

	fn := NewConnectFunc(cfg, logger)
	conn, err := fn.Call(context.Background(), Endpoint{Host: "93.184.216.34", Port: 80})
	require.NoError(t, err)
	conn.Close()

	assert.Equal(t, []string{"connectStart", "connectDone"}, messages(*records))
}
