// SPDX-License-Identifier: GPL-3.0-or-later

package headers

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// CRLF is the default line ending of header blocks.
const CRLF = "\r\n"

// Parse parses a CRLF-separated header block.
func Parse(raw string) *Set {
	return ParseWithLineEnding(raw, CRLF)
}

// ParseWithLineEnding parses a header block whose lines are separated by
// lineEnding. An empty lineEnding means [CRLF].
//
// Blank lines, lines that are neither "Name: value" nor a status line and
// well-known headers whose value does not follow their grammar are skipped.
func ParseWithLineEnding(raw, lineEnding string) *Set {
	if lineEnding == "" {
		lineEnding = CRLF
	}
	set := newSet(lineEnding)
	for _, line := range strings.Split(raw, lineEnding) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if occ, ok := parseLine(line); ok {
			set.add(occ)
		}
	}
	return set
}

// parseLine classifies line and dispatches it to the parser of its name.
func parseLine(line string) (Occurrence, bool) {
	name, value, ok := splitField(line)
	if !ok {
		// Only the status line uses the "name value" form.
		name, ok = statusLineName(line)
		if !ok {
			return Occurrence{}, false
		}
		value = line
	}

	occ := Occurrence{Name: name, Original: line, Value: value}
	entry, known := dispatch[strings.ToLower(name)]
	if !known {
		return occ, value != ""
	}
	occ.Name = entry.canonical
	occ.Fields = entry.parse(value)
	return occ, occ.Fields != nil
}

// splitField splits a "Name: value" line. It fails when the part before
// the first colon is not a valid field name.
func splitField(line string) (name, value string, ok bool) {
	name, value, found := strings.Cut(line, ":")
	if !found || !httpguts.ValidHeaderFieldName(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}

// statusLineName returns "HTTP" when line looks like a status line.
func statusLineName(line string) (string, bool) {
	end := strings.IndexFunc(line, func(r rune) bool {
		return !(r == '-' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'))
	})
	if end <= 0 {
		return "", false
	}
	name := line[:end]
	if !strings.EqualFold(name, "HTTP") {
		return "", false
	}
	return name, true
}
