package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageMetrics(t *testing.T) {
	m := New()
	m.SetRunInfo("run-1", "dev", "compare")
	m.RowsWritten("requirements_comparison.csv", 2)
	m.RowsWritten("requirements_comparison.csv", 1)
	m.FilesDiscovered("requirements_comparison.csv", 4)
	done := m.Stage("compare", "load")
	done()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.rowsWritten.WithLabelValues("requirements_comparison.csv")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.filesDiscovered.WithLabelValues("requirements_comparison.csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runInfo.WithLabelValues("run-1", "dev", "compare")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageSeconds, "spatialbench_stage_duration_seconds"))

	expected := `
# HELP spatialbench_rows_written_total CSV data rows written, by output file.
# TYPE spatialbench_rows_written_total counter
spatialbench_rows_written_total{file="requirements_comparison.csv"} 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "spatialbench_rows_written_total"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	require.NoError(t, m.WriteTextfile(""))

	m.SetRunInfo("run-2", "dev", "stats")
	path := filepath.Join(t.TempDir(), "spatialbench.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `spatialbench_run_info{command="stats",run_id="run-2",version="dev"} 1`)
}
