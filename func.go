// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import "context"

// Func is a generic operation that accepts an input and returns a result.
//
// The [*Engine] opens connections through a pipeline of Func stages built
// with [Compose2]: an [Endpoint] goes in, a ready [net.Conn] comes out.
// Callers may swap any stage (see [*Engine.DialFunc]).
//
// Resource cleanup contract: when a Func receives a closeable resource as input
// and returns an error, it is responsible for closing that resource before returning.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, error)
}

// FuncAdapter wraps a function as a [Func] implementation.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, error) {
	return f(ctx, input)
}
