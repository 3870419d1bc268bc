// SPDX-License-Identifier: GPL-3.0-or-later

package headers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingStringField means an occurrence has no raw value to return.
var ErrMissingStringField = errors.New("headers: missing string field")

// Occurrence is one appearance of a header in a block.
type Occurrence struct {
	// Name is the header name, in canonical spelling for well-known
	// headers and as written otherwise.
	Name string

	// Original is the whole line, trimmed.
	Original string

	// Value is the raw value: the text after the colon, trimmed, or
	// the whole line for the status line.
	Value string

	// Fields is the structured form of well-known headers, nil otherwise.
	Fields Fields
}

// Record groups the occurrences of one header name in arrival order.
type Record struct {
	// Name is the name of the first occurrence.
	Name string

	// Occurrences is never empty.
	Occurrences []Occurrence
}

// Values returns the raw value of each occurrence.
func (r *Record) Values() []string {
	values := make([]string, 0, len(r.Occurrences))
	for _, occ := range r.Occurrences {
		values = append(values, occ.Value)
	}
	return values
}

// Set is the result of parsing a header block.
//
// A Set is not modified after [Parse] returns and is safe for
// concurrent reads.
type Set struct {
	lineEnding string
	order      []string
	records    map[string]*Record
}

func newSet(lineEnding string) *Set {
	return &Set{lineEnding: lineEnding, records: make(map[string]*Record)}
}

func (s *Set) add(occ Occurrence) {
	key := strings.ToLower(occ.Name)
	rec, ok := s.records[key]
	if !ok {
		rec = &Record{Name: occ.Name}
		s.records[key] = rec
		s.order = append(s.order, key)
	}
	if key == "http" {
		rec.Occurrences = rec.Occurrences[:0]
	}
	rec.Occurrences = append(rec.Occurrences, occ)
}

// LineEnding returns the line ending the block was split with.
func (s *Set) LineEnding() string {
	return s.lineEnding
}

// Len returns the number of distinct header names.
func (s *Set) Len() int {
	return len(s.order)
}

// Names returns the header names in order of first appearance.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.order))
	for _, key := range s.order {
		names = append(names, s.records[key].Name)
	}
	return names
}

// Lookup returns the record of name, matched case-insensitively.
func (s *Set) Lookup(name string) (*Record, bool) {
	rec, ok := s.records[strings.ToLower(name)]
	return rec, ok
}

// Get returns the raw value of name. Multiple occurrences are joined by
// the line ending. An absent name yields the empty string and no error.
func (s *Set) Get(name string) (string, error) {
	rec, ok := s.Lookup(name)
	if !ok {
		return "", nil
	}
	values := rec.Values()
	for _, value := range values {
		if value == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingStringField, rec.Name)
		}
	}
	return strings.Join(values, s.lineEnding), nil
}

// Status returns the status line, if the block has a valid one.
func (s *Set) Status() (*StatusLine, bool) {
	rec, ok := s.Lookup("HTTP")
	if !ok {
		return nil, false
	}
	status, ok := rec.Occurrences[len(rec.Occurrences)-1].Fields.(*StatusLine)
	return status, ok
}

// Map returns the raw values of every header, keyed by [Record.Name].
func (s *Set) Map() map[string][]string {
	out := make(map[string][]string, len(s.order))
	for _, key := range s.order {
		rec := s.records[key]
		out[rec.Name] = rec.Values()
	}
	return out
}

// String reconstructs the header block, grouping occurrences by name in
// order of first appearance and ending with an empty line.
func (s *Set) String() string {
	var sb strings.Builder
	for _, key := range s.order {
		for _, occ := range s.records[key].Occurrences {
			sb.WriteString(occ.Original)
			sb.WriteString(s.lineEnding)
		}
	}
	sb.WriteString(s.lineEnding)
	return sb.String()
}
