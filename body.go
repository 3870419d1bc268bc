// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bassosimone/framer/headers"
	"golang.org/x/net/http/httpguts"
)

// ReadHeaderBlock reads lines from the connection of rid up to the empty
// line ending a header block and parses them.
//
// The returned [*Result] tells whether the block was complete: when the
// stream ends or times out first, the set contains what arrived.
func (e *Engine) ReadHeaderBlock(ctx context.Context, rid RID) (*headers.Set, *Result, error) {
	res, err := e.Read(ctx, rid, UntilLineRequest(CRLF), BufferSink())
	if err != nil {
		return nil, res, err
	}
	return headers.Parse(string(res.Data)), res, nil
}

// BodyRequest returns the [ReadRequest] framing the body that follows the
// given response headers.
//
// Responses whose status forbids a body (1xx, 204 and 304) read nothing.
// Otherwise a chunked Transfer-Encoding wins over Content-Length, and
// without either the body extends to the end of the stream. A malformed
// Content-Length fails with [ErrInvalidRequest].
func BodyRequest(set *headers.Set) (ReadRequest, error) {
	if status, ok := set.Status(); ok {
		if code := status.Code; (code >= 100 && code < 200) || code == 204 || code == 304 {
			return LengthRequest(0), nil
		}
	}

	if rec, ok := set.Lookup("Transfer-Encoding"); ok {
		if httpguts.HeaderValuesContainsToken(rec.Values(), "chunked") {
			return ChunkedRequest(), nil
		}
	}

	if rec, ok := set.Lookup("Content-Length"); ok {
		values := rec.Values()
		first := strings.TrimSpace(values[0])
		for _, value := range values[1:] {
			if strings.TrimSpace(value) != first {
				return ReadRequest{}, newError("bodyRequest", DefaultRID, ErrInvalidRequest,
					fmt.Sprintf("conflicting Content-Length values %q", values), nil)
			}
		}
		length, err := strconv.ParseInt(first, 10, 64)
		if err != nil || length < 0 {
			return ReadRequest{}, newError("bodyRequest", DefaultRID, ErrInvalidRequest,
				fmt.Sprintf("bad Content-Length %q", first), err)
		}
		return LengthRequest(length), nil
	}

	return UnboundedRequest(), nil
}
