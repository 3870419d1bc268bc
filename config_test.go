// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)

	// Dialer should be set to *net.Dialer
	_, ok := cfg.Dialer.(*net.Dialer)
	assert.True(t, ok, "Dialer should be *net.Dialer")

	// ErrClassifier should be DefaultErrClassifier
	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))

	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)

	// TimeNow should be set and return a valid time
	now := cfg.TimeNow()
	assert.False(t, now.IsZero())
}

func TestEndpointAddress(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// ep is the endpoint.
		ep Endpoint

		// want is the expected address.
		want string
	}{
		{
			name: "hostname",
			ep:   Endpoint{Host: "example.com", Port: 80},
			want: "example.com:80",
		},

		{
			name: "IPv6 literal",
			ep:   Endpoint{Host: "2001:db8::1", Port: 443},
			want: "[2001:db8::1]:443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ep.Address())
		})
	}
}
