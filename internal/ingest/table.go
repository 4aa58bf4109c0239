package ingest

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrParse = errors.New("malformed value")

// Table is a CSV file held in memory: a header plus string cells addressed
// by column name. Short rows read as empty cells.
type Table struct {
	Source string
	Path   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

func NewTable(source string, header []string, rows [][]string) *Table {
	t := &Table{Source: source, Header: header, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

func (t *Table) Index(col string) (int, bool) {
	i, ok := t.index[col]
	return i, ok
}

// Value returns the trimmed cell, or "" when the column or cell is missing.
func (t *Table) Value(row int, col string) string {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// Float parses a numeric cell. Rows are reported 1-based, counting the header
// as line 1, so messages match what an editor shows.
func (t *Table) Float(row int, col string) (float64, error) {
	if !t.Has(col) {
		return 0, &SchemaError{File: t.Source, Column: col}
	}
	v := t.Value(row, col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrParse, "%s line %d column %s: %q is not a number", t.Source, row+2, col, v)
	}
	return f, nil
}

func (t *Table) Floats(col string) ([]float64, error) {
	out := make([]float64, 0, len(t.Rows))
	for i := range t.Rows {
		f, err := t.Float(i, col)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Numeric reports whether every non-empty cell of col parses as a number and
// at least one cell is non-empty.
func (t *Table) Numeric(col string) bool {
	seen := false
	for i := range t.Rows {
		v := t.Value(i, col)
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// Rename changes a header name in place.
func (t *Table) Rename(from, to string) {
	i, ok := t.index[from]
	if !ok || from == to {
		return
	}
	t.Header[i] = to
	t.reindex()
}

// AddColumn appends a constant-valued column.
func (t *Table) AddColumn(name, value string) {
	t.Header = append(t.Header, name)
	for i, r := range t.Rows {
		for len(r) < len(t.Header)-1 {
			r = append(r, "")
		}
		t.Rows[i] = append(r, value)
	}
	t.reindex()
}

// Concat stacks tables on the union of their columns, in first-seen order.
func Concat(source string, tables ...*Table) *Table {
	var header []string
	seen := map[string]struct{}{}
	for _, t := range tables {
		for _, h := range t.Header {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			header = append(header, h)
		}
	}
	var rows [][]string
	for _, t := range tables {
		for i := range t.Rows {
			row := make([]string, len(header))
			for j, h := range header {
				row[j] = t.Value(i, h)
			}
			rows = append(rows, row)
		}
	}
	return NewTable(source, header, rows)
}
