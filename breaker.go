// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/sony/gobreaker/v2"
)

// NewBreakerSettings returns a function creating one circuit breaker per
// address. A breaker trips after at least three dials of which 60% or
// more failed, stays open for timeout, then lets maxRequests trial dials
// through. Counts reset every interval while closed.
func NewBreakerSettings(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[net.Conn] {
	return func(address string) *gobreaker.CircuitBreaker[net.Conn] {
		settings := gobreaker.Settings{
			Name:        address,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				// Dials the caller gave up on say nothing about the peer.
				return err == nil || errors.Is(err, context.Canceled)
			},
		}
		return gobreaker.NewCircuitBreaker[net.Conn](settings)
	}
}

// NewBreakerDialer wraps dialer with per-address circuit breakers built
// by newBreaker (see [NewBreakerSettings]).
//
// Install it as [Config.Dialer] before calling [NewEngine]. While the
// breaker of an address is open, connects fail immediately with an error
// wrapping [gobreaker.ErrOpenState], reported as [ErrConnectionFailed].
func NewBreakerDialer(dialer Dialer, newBreaker func(string) *gobreaker.CircuitBreaker[net.Conn]) *BreakerDialer {
	runtimex.Assert(dialer != nil)
	runtimex.Assert(newBreaker != nil)
	return &BreakerDialer{
		Dialer:     dialer,
		NewBreaker: newBreaker,
		breakers:   make(map[string]*gobreaker.CircuitBreaker[net.Conn]),
	}
}

// BreakerDialer is a [Dialer] failing fast towards addresses that keep
// refusing connections. It never retries.
type BreakerDialer struct {
	// Dialer is the underlying [Dialer].
	Dialer Dialer

	// NewBreaker creates the breaker of an address on first use.
	NewBreaker func(address string) *gobreaker.CircuitBreaker[net.Conn]

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[net.Conn]
}

var _ Dialer = &BreakerDialer{}

// DialContext implements [Dialer].
func (d *BreakerDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.Breaker(address).Execute(func() (net.Conn, error) {
		return d.Dialer.DialContext(ctx, network, address)
	})
}

// Breaker returns the circuit breaker of address, creating it if needed.
func (d *BreakerDialer) Breaker(address string) *gobreaker.CircuitBreaker[net.Conn] {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.breakers[address]
	if !ok {
		cb = d.NewBreaker(address)
		d.breakers[address] = cb
	}
	return cb
}
