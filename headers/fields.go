// SPDX-License-Identifier: GPL-3.0-or-later

package headers

import (
	"regexp"
	"strconv"
	"strings"
)

// Fields is the structured form of a well-known header. It is one of
// [*ContentType], [*StatusLine], [*Server] or [*TransferEncoding].
type Fields interface {
	fields()
}

// ContentType is a parsed media type such as "text/html; charset=utf-8".
type ContentType struct {
	Type      string
	Subtype   string
	Attribute string
	Value     string

	// Extra is whatever follows the first parameter, trimmed.
	Extra string
}

// StatusLine is a parsed "HTTP/<major>.<minor> <code> <phrase>" line.
type StatusLine struct {
	Major  int
	Minor  int
	Code   int
	Phrase string
}

// Server is a parsed product token such as "Apache/2.4.1 (Unix)".
type Server struct {
	Name    string
	Version string
	Comment string
	Extra   string
}

// TransferEncoding is a parsed transfer coding such as "chunked".
type TransferEncoding struct {
	Encoding  string
	Attribute string
	Value     string
	Extra     string
}

func (*ContentType) fields()      {}
func (*StatusLine) fields()       {}
func (*Server) fields()           {}
func (*TransferEncoding) fields() {}

const (
	token  = `[^()<>@,;:\\"/\[\]?={} \t\x00-\x1f\x7f]+`
	quoted = `"([^"\\\r\n]*)"`
)

var (
	contentTypeRe = regexp.MustCompile(
		`^(` + token + `)/(` + token + `);? ?(?:(` + token + `)=(?:(` + token + `)|` + quoted + `))?(.*)$`)

	statusLineRe = regexp.MustCompile(`^(?i:HTTP)/([0-9]+)\.([0-9]+) ([0-9]+)(?: (.*))?$`)

	serverRe = regexp.MustCompile(
		`^(` + token + `)(?:/(` + token + `))?(?: ?\(([^()]*)\))?(.*)$`)

	transferEncodingRe = regexp.MustCompile(
		`^(` + token + `);? ?(?:(` + token + `)=(?:(` + token + `)|` + quoted + `)?)?(.*)$`)
)

// fieldParser returns the structured form of a raw value, or nil when the
// value does not follow the grammar of the header.
type fieldParser func(value string) Fields

// dispatch maps lowercase names of well-known headers to their canonical
// spelling and parser.
var dispatch = map[string]struct {
	canonical string
	parse     fieldParser
}{
	"content-type":      {"Content-Type", parseContentType},
	"http":              {"HTTP", parseStatusLine},
	"server":            {"Server", parseServer},
	"transfer-encoding": {"Transfer-Encoding", parseTransferEncoding},
}

func parseContentType(value string) Fields {
	m := contentTypeRe.FindStringSubmatch(value)
	if m == nil {
		return nil
	}
	return &ContentType{
		Type:      m[1],
		Subtype:   m[2],
		Attribute: m[3],
		Value:     m[4] + m[5],
		Extra:     strings.TrimSpace(m[6]),
	}
}

func parseStatusLine(value string) Fields {
	m := statusLineRe.FindStringSubmatch(value)
	if m == nil {
		return nil
	}
	major, err1 := strconv.Atoi(m[1])
	minor, err2 := strconv.Atoi(m[2])
	code, err3 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	return &StatusLine{Major: major, Minor: minor, Code: code, Phrase: strings.TrimSpace(m[4])}
}

func parseServer(value string) Fields {
	m := serverRe.FindStringSubmatch(value)
	if m == nil {
		return nil
	}
	return &Server{
		Name:    m[1],
		Version: m[2],
		Comment: m[3],
		Extra:   strings.TrimSpace(m[4]),
	}
}

func parseTransferEncoding(value string) Fields {
	m := transferEncodingRe.FindStringSubmatch(value)
	if m == nil {
		return nil
	}
	return &TransferEncoding{
		Encoding:  m[1],
		Attribute: m[2],
		Value:     m[3] + m[4],
		Extra:     strings.TrimSpace(m[5]),
	}
}
