// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"net"
	"time"
)

const (
	// BufferSize is the maximum number of bytes moved by a single read and
	// the maximum length of a line returned by the line-oriented modes.
	BufferSize = 8192

	// CRLF is the default line ending of header blocks and chunked bodies.
	CRLF = "\r\n"

	// DefaultTimeout is the per-connection I/O timeout used when neither
	// the [Endpoint] nor the [Config] override it.
	DefaultTimeout = 5 * time.Second

	// DefaultPollInterval bounds how long a read waits while a connection
	// is in non-blocking mode.
	DefaultPollInterval = time.Millisecond
)

// Config holds common configuration for framer operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by [*ConnectFunc].
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// PollInterval is how long a read waits for data on a connection
	// that is not in blocking mode (see [*Engine.SetBlocking]).
	//
	// Set by [NewConfig] to [DefaultPollInterval].
	PollInterval time.Duration

	// Timeout is the connect and I/O timeout of connections whose
	// [Endpoint] does not specify one. Zero means no timeout.
	//
	// Set by [NewConfig] to [DefaultTimeout].
	Timeout time.Duration

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		PollInterval:  DefaultPollInterval,
		Timeout:       DefaultTimeout,
		TimeNow:       time.Now,
	}
}
