// Package testsupport holds fixture helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// RowPattern matches consecutive markdown table cells regardless of padding.
func RowPattern(cells ...string) *regexp.Regexp {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = regexp.QuoteMeta(c)
	}
	return regexp.MustCompile(`\|\s*` + strings.Join(parts, `\s*\|\s*`) + `\s*\|`)
}
