// SPDX-License-Identifier: GPL-3.0-or-later

// Package framer reads framed payloads off raw duplex connections.
//
// # Core Abstraction
//
// An [*Engine] owns a set of connections, each identified by a caller-chosen
// [RID]. A typical exchange writes a request, reads a header block and then
// reads the body with the framing the headers announce:
//
//	eng := framer.NewEngine(framer.NewConfig(), logger)
//	defer eng.Close()
//	eng.Connect(ctx, "api", framer.Endpoint{Host: "example.com", Port: 80})
//	eng.Clear("api")
//	eng.Write(ctx, "api", request)
//	set, _, err := eng.ReadHeaderBlock(ctx, "api")
//	req, err := framer.BodyRequest(set)
//	res, err := eng.Read(ctx, "api", req, framer.BufferSink())
//
// # Framing Modes
//
// A [ReadRequest] selects one [Mode]:
//   - [ModeLength]: a fixed number of bytes
//   - [ModeUnbounded]: everything up to end-of-stream or timeout
//   - [ModeLine]: a single line
//   - [ModeChunked]: the chunked transfer coding
//   - [ModeUntilFullLine]: lines up to one equal to a delimiter
//   - [ModeUntilInStr], [ModeUntilInStrCut]: lines up to one containing a
//     delimiter, case-insensitively
//
// A [Sink] decides where decoded bytes go: a buffer returned in
// [Result.Data], a caller-supplied writer flushed after each chunk, or a
// new file that is never overwritten.
//
// End-of-stream and timeouts end a read with [OutcomeEOF] and
// [OutcomeTimeout]; they are not errors. Errors are [*Error] values
// wrapping one of the Err* kinds of this package.
//
// # Connection Lifecycle
//
// Connections open lazily: [*Engine.Write] and [*Engine.Read] dial the
// endpoint recorded by [*Engine.Connect] or [*Engine.Register] when the
// rid is not live. Connections are in blocking mode between operations;
// [*Engine.Clear] drains stale bytes in non-blocking mode and restores
// blocking mode before returning. Persistent endpoints survive
// [*Engine.Disconnect] and [*Engine.Close].
//
// The engine dials through [*Engine.DialFunc], a [Func] pipeline built with
// [Compose2] from [*ConnectFunc] and [*ObserveConnFunc]. Wrap the dialer
// with [*BreakerDialer] to fail fast towards unreachable endpoints.
//
// # Observability
//
// All operations support structured logging via [SLogger] (compatible with
// [log/slog]). By default, logging is disabled.
//
// Span events come in *Start/*Done pairs (connectStart/connectDone,
// frameReadStart/frameReadDone, clearStart/clearDone) and share the
// localAddr, remoteAddr, protocol, rid, spanID and t fields. Done events
// add t0, err and errClass. Each connection gets its own spanID (see
// [NewSpanID]). I/O-level events (read, write, deadline changes) are
// emitted at [slog.LevelDebug]; all other events use [slog.LevelInfo].
//
// # Concurrency
//
// Operations on different rids may run concurrently. Operations on the
// same rid must be serialized by the caller. Reads are interrupted only
// by the connection timeout: the context bounds dialing and is checked
// when an operation starts.
package framer
