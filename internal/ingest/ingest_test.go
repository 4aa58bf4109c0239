package ingest

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTable(t *testing.T) {
	path := writeFixture(t, "requirements.csv", "\xEF\xBB\xBFTask, CPU_time ,Wall_time\r\nfit,10,5\r\npredict,20,10\r\n")
	tbl, err := ReadTable(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Task", "CPU_time", "Wall_time"}, tbl.Header)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "predict", tbl.Value(1, "Task"))

	cpu, err := tbl.Floats("CPU_time")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, cpu)
	assert.Equal(t, path, tbl.Path)
}

func TestReadTableLimit(t *testing.T) {
	path := writeFixture(t, "big.csv", "a,b\n1,2\n")
	_, err := ReadTable(context.Background(), path, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max input bytes")
}

func TestReadTableMissingFile(t *testing.T) {
	_, err := ReadTable(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadTableCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadTable(ctx, "unused.csv", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("x.csv", nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFloatReportsLine(t *testing.T) {
	tbl, err := Parse("r.csv", []byte("CPU_time\n1\nabc\n"))
	require.NoError(t, err)
	_, err = tbl.Floats("CPU_time")
	require.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "line 3")
}

func TestNumeric(t *testing.T) {
	tbl, err := Parse("t.csv", []byte("Task,CPU_time,Empty\nfit,1,\npredict,,\n"))
	require.NoError(t, err)
	assert.True(t, tbl.Numeric("CPU_time"))
	assert.False(t, tbl.Numeric("Task"))
	assert.False(t, tbl.Numeric("Empty"))
}

func TestConcatUnionColumns(t *testing.T) {
	a := NewTable("a", []string{"Task", "CPU_time"}, [][]string{{"x", "1"}})
	b := NewTable("b", []string{"Task", "RAM_used_MB"}, [][]string{{"y", "2"}})
	c := Concat("all", a, b)
	assert.Equal(t, []string{"Task", "CPU_time", "RAM_used_MB"}, c.Header)
	assert.Equal(t, [][]string{{"x", "1", ""}, {"y", "", "2"}}, c.Rows)
}

func TestAddColumnPadsShortRows(t *testing.T) {
	tbl := NewTable("t", []string{"a", "b"}, [][]string{{"1"}, {"1", "2"}})
	tbl.AddColumn("Subfolder", "SN048")
	assert.Equal(t, "SN048", tbl.Value(0, "Subfolder"))
	assert.Equal(t, "SN048", tbl.Value(1, "Subfolder"))
	assert.Equal(t, "", tbl.Value(0, "b"))
}

func TestResolveAliases(t *testing.T) {
	aliases := NewAliases(map[string][]string{
		"CPU_time":  {"cpu_seconds", "cpu time (s)"},
		"Wall_time": {"elapsed"},
	})
	tbl := NewTable("r.csv", []string{"Cpu Time (s)", "Elapsed", "RAM"}, nil)
	require.NoError(t, aliases.Resolve(tbl, "CPU_time", "Wall_time"))
	assert.Equal(t, []string{"CPU_time", "Wall_time", "RAM"}, tbl.Header)
}

func TestResolvePrefersCanonical(t *testing.T) {
	aliases := NewAliases(map[string][]string{"CPU_time": {"cpu_seconds"}})
	tbl := NewTable("r.csv", []string{"cpu_seconds", "CPU_time"}, nil)
	require.NoError(t, aliases.Resolve(tbl, "CPU_time"))
	assert.Equal(t, []string{"cpu_seconds", "CPU_time"}, tbl.Header)
}

func TestResolveMissing(t *testing.T) {
	aliases := NewAliases(map[string][]string{"Wall_time": {"elapsed"}})
	tbl := NewTable("r.csv", []string{"duration"}, nil)
	err := aliases.Resolve(tbl, "Wall_time")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Wall_time", se.Column)
	assert.Equal(t, []string{"elapsed", "walltime"}, se.Aliases)
	assert.Contains(t, err.Error(), "r.csv")
}

type sample struct {
	Task  string  `csv:"Task"`
	CPU   float64 `csv:"CPU_time"`
	Cores int     `csv:"CPU_cores"`
}

func TestWriteAndLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	rows := []sample{{Task: "fit", CPU: 1.5, Cores: 4}, {Task: "predict", CPU: 30, Cores: 8}}
	require.NoError(t, WriteCSV(path, rows))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Task,CPU_time,CPU_cores\nfit,1.5,4\npredict,30,8\n", string(raw))

	tbl, err := ReadTable(context.Background(), path, 0)
	require.NoError(t, err)
	got, err := LoadCSV[sample](tbl)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteCSVColumnSubset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, []sample{{Task: "fit", CPU: 2, Cores: 1}}, "CPU_time", "Task"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CPU_time,Task\n2,fit\n", string(raw))

	assert.Error(t, WriteCSV(path, []sample{}, "Nope"))
}

func TestAppendCSVWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.csv")
	require.NoError(t, AppendCSV(path, []sample{{Task: "init", CPU: 1, Cores: 2}}))
	require.NoError(t, AppendCSV(path, []sample{{Task: "analysis", CPU: 2, Cores: 2}}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Task,CPU_time,CPU_cores\ninit,1,2\nanalysis,2,2\n", string(raw))
}

func TestAppendCSVFollowsExistingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.csv")
	require.NoError(t, os.WriteFile(path, []byte("CPU time,Extra,task\n5,x,init"), 0o644))
	require.NoError(t, AppendCSV(path, []sample{{Task: "analysis", CPU: 2, Cores: 2}}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CPU time,Extra,task\n5,x,init\n2,,analysis\n", string(raw))

	tbl, err := ReadTable(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestAppendCSVRefusesUnrelatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.csv")
	before := "gene,qval\ng1,0.01\n"
	require.NoError(t, os.WriteFile(path, []byte(before), 0o644))
	err := AppendCSV(path, []sample{{Task: "fit"}})
	assert.ErrorIs(t, err, ErrHeaderMismatch)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, string(raw))
}

func TestLoadCSVIntegerFromFloat(t *testing.T) {
	tbl, err := Parse("v.csv", []byte("Task,CPU_cores\nx,12.0\n"))
	require.NoError(t, err)
	got, err := LoadCSV[sample](tbl)
	require.NoError(t, err)
	assert.Equal(t, 12, got[0].Cores)

	tbl, err = Parse("v.csv", []byte("Task,CPU_cores\nx,1.5\n"))
	require.NoError(t, err)
	_, err = LoadCSV[sample](tbl)
	assert.ErrorIs(t, err, ErrParse)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.5", FormatFloat(0.5))
	assert.Equal(t, "30", FormatFloat(30))
	assert.Equal(t, "0", FormatFloat(math.NaN()))
}
