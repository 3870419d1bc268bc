// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"testing"

	"github.com/bassosimone/framer/headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyRequest(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// raw is the header block.
		raw string

		// want is the expected request.
		want ReadRequest

		// wantErr indicates whether we expect an error.
		wantErr bool
	}{
		{
			name: "chunked",
			raw:  "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n",
			want: ChunkedRequest(),
		},

		{
			name: "chunked after another coding",
			raw:  "HTTP/1.1 200 OK\r\nTransfer-Encoding: gzip, Chunked\r\nContent-Length: 10\r\n",
			want: ChunkedRequest(),
		},

		{
			name: "content length",
			raw:  "HTTP/1.1 200 OK\r\nContent-Length: 42\r\n",
			want: LengthRequest(42),
		},

		{
			name: "repeated identical content length",
			raw:  "Content-Length: 7\r\nContent-Length: 7\r\n",
			want: LengthRequest(7),
		},

		{
			name:    "conflicting content length",
			raw:     "Content-Length: 7\r\nContent-Length: 8\r\n",
			wantErr: true,
		},

		{
			name:    "malformed content length",
			raw:     "Content-Length: seven\r\n",
			wantErr: true,
		},

		{
			name:    "negative content length",
			raw:     "Content-Length: -1\r\n",
			wantErr: true,
		},

		{
			name: "no framing headers",
			raw:  "HTTP/1.0 200 OK\r\nServer: Apache/2.4.1 (Unix)\r\n",
			want: UnboundedRequest(),
		},

		{
			name: "no content",
			raw:  "HTTP/1.1 204 No Content\r\nContent-Length: 10\r\n",
			want: LengthRequest(0),
		},

		{
			name: "not modified",
			raw:  "HTTP/1.1 304 Not Modified\r\nTransfer-Encoding: chunked\r\n",
			want: LengthRequest(0),
		},

		{
			name: "informational",
			raw:  "HTTP/1.1 100 Continue\r\n",
			want: LengthRequest(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BodyRequest(headers.Parse(tt.raw))

			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req)
		})
	}
}

// A response is read as a header block followed by the body it announces.
func TestReadHeaderBlockThenBody(t *testing.T) {
	conn := newScriptedConn(
		readStep{data: "HTTP/1.1 200 OK\r\nContent-Type: text/plain; charset=utf-8\r\n"},
		readStep{data: "Transfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n"},
		readStep{data: "5\r\npedia\r\n0\r\n\r\n"},
	)
	eng, _ := newTestEngine(DefaultSLogger(), conn)

	set, res, err := eng.ReadHeaderBlock(t.Context(), DefaultRID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeComplete, res.Outcome)

	status, ok := set.Status()
	require.True(t, ok)
	assert.Equal(t, 200, status.Code)
	rec, ok := set.Lookup("content-type")
	require.True(t, ok)
	assert.Equal(t, &headers.ContentType{Type: "text", Subtype: "plain", Attribute: "charset", Value: "utf-8"},
		rec.Occurrences[0].Fields)

	req, err := BodyRequest(set)
	require.NoError(t, err)
	body, err := eng.Read(t.Context(), DefaultRID, req, BufferSink())
	require.NoError(t, err)
	assert.Equal(t, "Wikipedia", string(body.Data))
}

// An incomplete header block is still parsed and the outcome says why.
func TestReadHeaderBlockIncomplete(t *testing.T) {
	eng, _ := newTestEngine(DefaultSLogger(), newScriptedConn(
		readStep{data: "HTTP/1.1 200 OK\r\nServer: nginx\r\n", err: errTimeout},
	))

	set, res, err := eng.ReadHeaderBlock(t.Context(), DefaultRID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, res.Outcome)
	assert.Equal(t, []string{"HTTP", "Server"}, set.Names())
}

func TestReadHeaderBlockNotConnected(t *testing.T) {
	eng, _ := newTestEngine(DefaultSLogger())

	set, res, err := eng.ReadHeaderBlock(t.Context(), "nowhere")

	require.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, set)
	assert.Nil(t, res)
}
