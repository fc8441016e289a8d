package store

import (
	"sort"
	"strings"

	"github.com/samber/oops"
)

// Table is a small in-memory table: a header row plus data rows, all
// strings, exchanged on the wire as semicolon separated CSV.
type Table struct {
	Header []string
	Rows   [][]string
}

var (
	// ErrBadCSV is returned for rows that do not match the header width.
	ErrBadCSV = oops.Errorf("ezdb/store: malformed csv data")
	// ErrBadFilter is returned for an unparseable row filter.
	ErrBadFilter = oops.Errorf("ezdb/store: malformed filter")
)

// ParseTable reads semicolon separated CSV, first line is the header.
func ParseTable(data []byte) (*Table, error) {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, ErrBadCSV
	}
	t := &Table{Header: strings.Split(lines[0], ";")}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		row := strings.Split(line, ";")
		if len(row) != len(t.Header) {
			return nil, ErrBadCSV
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Encode renders the table back to CSV.
func (t *Table) Encode() []byte {
	var b strings.Builder
	b.WriteString(strings.Join(t.Header, ";"))
	for _, row := range t.Rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, ";"))
	}
	return []byte(b.String())
}

// filter is a minimal row predicate: either "*" for every row or
// "column=value" for an exact cell match.
type filter struct {
	all    bool
	column string
	value  string
}

func parseFilter(t *Table, query string) (filter, error) {
	query = strings.TrimSpace(query)
	if query == "*" {
		return filter{all: true}, nil
	}
	column, value, ok := strings.Cut(query, "=")
	if !ok {
		return filter{}, ErrBadFilter
	}
	f := filter{column: strings.TrimSpace(column), value: strings.TrimSpace(value)}
	if f.columnIndex(t) < 0 {
		return filter{}, ErrBadFilter
	}
	return f, nil
}

func (f filter) columnIndex(t *Table) int {
	for i, h := range t.Header {
		if h == f.column {
			return i
		}
	}
	return -1
}

func (f filter) matches(t *Table, row []string) bool {
	if f.all {
		return true
	}
	return row[f.columnIndex(t)] == f.value
}

// Select returns a new table holding the rows matched by query.
func (t *Table) Select(query string) (*Table, error) {
	f, err := parseFilter(t, query)
	if err != nil {
		return nil, err
	}
	out := &Table{Header: t.Header}
	for _, row := range t.Rows {
		if f.matches(t, row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// DeleteRows removes the rows matched by query, returning the count.
func (t *Table) DeleteRows(query string) (int, error) {
	f, err := parseFilter(t, query)
	if err != nil {
		return 0, err
	}
	kept := t.Rows[:0]
	deleted := 0
	for _, row := range t.Rows {
		if f.matches(t, row) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return deleted, nil
}

// Append adds another table's rows; headers must agree exactly.
func (t *Table) Append(other *Table) error {
	if len(other.Header) != len(t.Header) {
		return ErrBadCSV
	}
	for i := range t.Header {
		if t.Header[i] != other.Header[i] {
			return ErrBadCSV
		}
	}
	t.Rows = append(t.Rows, other.Rows...)
	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
