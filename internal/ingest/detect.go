package ingest

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// SchemaError reports a required column that no accepted alias matched.
type SchemaError struct {
	File    string
	Column  string
	Aliases []string
}

func (e *SchemaError) Error() string {
	if len(e.Aliases) == 0 {
		return fmt.Sprintf("%s: missing column %s", e.File, e.Column)
	}
	return fmt.Sprintf("%s: no column matching %s (accepted: %s)", e.File, e.Column, strings.Join(e.Aliases, ", "))
}

// NormalizeName folds a header for alias comparison: lower case, with
// separators and punctuation removed. "CPU_time", "cpu time" and "CpuTime"
// all fold to "cputime".
func NormalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Aliases maps a folded header name to its canonical column name.
type Aliases map[string]string

// NewAliases builds the lookup from canonical -> accepted spellings. The
// canonical name is always accepted.
func NewAliases(byCanonical map[string][]string) Aliases {
	a := Aliases{}
	for canonical, names := range byCanonical {
		a[NormalizeName(canonical)] = canonical
		for _, n := range names {
			a[NormalizeName(n)] = canonical
		}
	}
	return a
}

// Accepted lists the folded spellings that resolve to canonical.
func (a Aliases) Accepted(canonical string) []string {
	var out []string
	for alias, c := range a {
		if c == canonical {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve renames every header that matches an alias to its canonical name.
// An exact canonical header wins over aliases; otherwise the first matching
// header in column order is used. It returns a SchemaError for the first
// required column left unmatched.
func (a Aliases) Resolve(t *Table, required ...string) error {
	claimed := map[string]bool{}
	for _, h := range t.Header {
		if c, ok := a[NormalizeName(h)]; ok && c == h {
			claimed[c] = true
		}
	}
	for _, h := range append([]string(nil), t.Header...) {
		c, ok := a[NormalizeName(h)]
		if !ok || claimed[c] {
			continue
		}
		claimed[c] = true
		t.Rename(h, c)
	}
	for _, col := range required {
		if !t.Has(col) {
			return &SchemaError{File: t.Source, Column: col, Aliases: a.Accepted(col)}
		}
	}
	return nil
}
