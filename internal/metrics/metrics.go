package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spatialbench"

// StageMetrics records one CLI run on a private registry. Nothing is served;
// the registry is written to a node-exporter textfile when configured.
type StageMetrics struct {
	Registry *prometheus.Registry

	stageSeconds    *prometheus.HistogramVec
	rowsWritten     *prometheus.CounterVec
	filesDiscovered *prometheus.CounterVec
	runInfo         *prometheus.GaugeVec
}

func New() *StageMetrics {
	m := &StageMetrics{
		Registry: prometheus.NewRegistry(),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"command", "stage"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "CSV data rows written, by output file.",
		}, []string{"file"}),
		filesDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_discovered_total",
			Help:      "Input files found by directory scans.",
		}, []string{"file"}),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_info",
			Help:      "Constant 1, labelled with the run identity.",
		}, []string{"run_id", "version", "command"}),
	}
	m.Registry.MustRegister(m.stageSeconds, m.rowsWritten, m.filesDiscovered, m.runInfo)
	return m
}

func (m *StageMetrics) SetRunInfo(runID, version, command string) {
	m.runInfo.WithLabelValues(runID, version, command).Set(1)
}

// Stage starts timing a stage; call the returned func when it ends.
func (m *StageMetrics) Stage(command, stage string) func() {
	start := time.Now()
	return func() {
		m.stageSeconds.WithLabelValues(command, stage).Observe(time.Since(start).Seconds())
	}
}

func (m *StageMetrics) RowsWritten(file string, n int) {
	m.rowsWritten.WithLabelValues(file).Add(float64(n))
}

func (m *StageMetrics) FilesDiscovered(file string, n int) {
	m.filesDiscovered.WithLabelValues(file).Add(float64(n))
}

// WriteTextfile writes all metrics in text exposition format. An empty path
// is a no-op.
func (m *StageMetrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return errors.Wrapf(err, "write metrics %s", path)
	}
	return nil
}
