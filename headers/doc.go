// SPDX-License-Identifier: GPL-3.0-or-later

// Package headers parses raw header blocks into queryable records.
//
// A header block is a sequence of lines separated by a line ending
// (CRLF by default), optionally starting with an HTTP status line:
//
//	HTTP/1.1 200 OK
//	Content-Type: text/html; charset=utf-8
//	Transfer-Encoding: chunked
//
// [Parse] returns a fresh [*Set] on every call. Names are matched
// case-insensitively and repeated names keep every occurrence in arrival
// order, except for the status line, of which only the latest is kept.
//
// A few well-known names get structured fields besides the raw value:
// Content-Type ([*ContentType]), the status line ([*StatusLine]), Server
// ([*Server]) and Transfer-Encoding ([*TransferEncoding]). The package
// does no I/O.
package headers
