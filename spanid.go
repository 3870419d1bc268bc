// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 identifying a span.
//
// The [*Engine] assigns a fresh span ID to every connection it opens and
// attaches it to every event concerning that connection, so that the
// connect, write, framed-read and clear events of one connection can be
// correlated even when several rids are active at once.
//
// This function panics if the system random number generator fails.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
