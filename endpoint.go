// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"net"
	"strconv"
	"time"
)

// Endpoint describes the remote end of a logical connection.
type Endpoint struct {
	// Host is a hostname or an IP address.
	Host string

	// Port is the TCP port.
	Port int

	// Timeout overrides [Config.Timeout] for this connection when nonzero.
	Timeout time.Duration

	// Persistent connections survive [*Engine.Disconnect] and [*Engine.Close]
	// so they can be reused across logically separate requests.
	Persistent bool
}

// Address returns the endpoint in the host:port form used for dialing.
func (ep Endpoint) Address() string {
	return net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port))
}
