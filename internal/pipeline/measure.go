package pipeline

import (
	"context"
	"os/exec"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"spatialbench/internal/ingest"
	"spatialbench/internal/runtime"
)

// MeasuredRow is one line appended to a method's requirements.csv.
type MeasuredRow struct {
	Task            string  `csv:"Task"`
	CPUTime         float64 `csv:"CPU_time"`
	WallTime        float64 `csv:"Wall_time"`
	RAMUsedMB       float64 `csv:"RAM_used_MB"`
	CPUUsagePercent float64 `csv:"CPU_usage_percent"`
}

type MeasureOptions struct {
	Method string
	// Task defaults to the method's configured task label.
	Task string
	Argv []string
}

// Measure runs a method command and records its resource usage for dataset.
// A command that ran but exited non-zero is still recorded; its failure is
// returned afterwards.
func (r *Runner) Measure(ctx context.Context, dataset string, opt MeasureOptions) (MeasuredRow, error) {
	m, err := r.Config.Method(opt.Method)
	if err != nil {
		return MeasuredRow{}, err
	}
	if len(opt.Argv) == 0 {
		return MeasuredRow{}, errors.New("no command to measure")
	}
	task := opt.Task
	if task == "" {
		task = m.Task
	}
	log := zap.L().With(zap.String("dataset", dataset), zap.String("method", m.Name), zap.String("task", task))
	log.Info("measuring command", zap.Strings("argv", opt.Argv))

	done := r.Metrics.Stage("measure", "run")
	usage, runErr := runtime.Measure(ctx, runtime.Command{
		Name:   opt.Argv[0],
		Args:   opt.Argv[1:],
		Stdout: r.Stdout,
		Stderr: r.Stderr,
	})
	done()
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return MeasuredRow{}, runErr
	}

	row := MeasuredRow{
		Task:            task,
		CPUTime:         usage.CPUSeconds(),
		WallTime:        usage.WallSeconds(),
		RAMUsedMB:       usage.PeakRSSMB(),
		CPUUsagePercent: usage.CPUPercent(),
	}
	reqPath := r.Config.RequirementsPath(m, dataset)
	if err := ingest.AppendCSV(reqPath, []MeasuredRow{row}); err != nil {
		return row, err
	}
	r.Metrics.RowsWritten(r.Config.Layout.RequirementsFile, 1)

	host, err := runtime.HostInfo()
	if err != nil {
		return row, err
	}
	sysPath := r.Config.SystemPath(m, dataset)
	if err := ingest.WriteCSV(sysPath, []runtime.SystemInfo{host}); err != nil {
		return row, err
	}
	log.Info("recorded resource usage",
		zap.String("requirements", reqPath),
		zap.Float64("cpu_time", row.CPUTime),
		zap.Float64("wall_time", row.WallTime),
		zap.Float64("ram_used_mb", row.RAMUsedMB),
		zap.Int("cpu_cores", host.CPUCores),
		zap.Float64("total_ram_gb", host.TotalRAMGB))

	header, cells, err := ingest.Records([]MeasuredRow{row})
	if err != nil {
		return row, err
	}
	if err := printTable(r.Stdout, header, cells); err != nil {
		return row, err
	}
	if runErr != nil {
		return row, errors.Wrapf(runErr, "%s exited with code %d", opt.Argv[0], usage.ExitCode)
	}
	return row, nil
}
