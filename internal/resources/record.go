package resources

import (
	"math"

	"github.com/pkg/errors"

	"spatialbench/internal/ingest"
)

// Canonical column names.
const (
	ColTask            = "Task"
	ColCPUTime         = "CPU_time"
	ColWallTime        = "Wall_time"
	ColRAMUsedMB       = "RAM_used_MB"
	ColCPUUsagePercent = "CPU_usage_percent"
	ColTotalRAMGB      = "Total_RAM_GB"
	ColTotalRAMMB      = "Total_RAM_MB"
	ColCores           = "CPU_cores"
)

var ErrInvalidRecord = errors.New("invalid resource record")

// RecordAliases lists the header spellings accepted in requirements.csv.
var RecordAliases = ingest.NewAliases(map[string][]string{
	ColTask:            {"task", "step", "stage", "task_name"},
	ColCPUTime:         {"cpu_time_s", "cpu_time_sec", "cpu_time_seconds", "cpu_seconds", "cpu_sec", "total_cpu_time", "user_sys_time"},
	ColWallTime:        {"wall_time_s", "wall_time_sec", "wall_time_seconds", "wall_clock_time", "wallclock", "elapsed", "elapsed_time", "real_time"},
	ColRAMUsedMB:       {"ram_used", "ram_mb", "peak_ram_mb", "max_rss_mb", "memory_mb", "mem_used_mb"},
	ColCPUUsagePercent: {"cpu_percent", "cpu_usage", "cpu_usage_pct", "cpu_utilization"},
})

// SystemAliases lists the header spellings accepted in system_info.csv.
// Total_RAM_GB and Total_RAM_MB are distinct canonicals so the unit is known.
var SystemAliases = ingest.NewAliases(map[string][]string{
	ColTotalRAMGB: {"ram_gb", "total_ram", "memory_gb", "total_memory_gb", "mem_total_gb"},
	ColTotalRAMMB: {"ram_mb", "memory_mb", "total_memory_mb", "mem_total_mb", "ram_total_mb"},
	ColCores:      {"cores", "cpu_count", "ncpu", "num_cores", "cpus", "n_cores"},
})

// Record is one timed execution of a method task.
type Record struct {
	Task      string
	CPUTime   float64
	WallTime  float64
	RAMUsedMB float64
	// CPUUsagePercent is nil when the producer did not report it.
	CPUUsagePercent *float64
}

// UsagePercent returns the reported CPU usage, or CPU_time / Wall_time × 100.
func (r Record) UsagePercent() float64 {
	if r.CPUUsagePercent != nil {
		return *r.CPUUsagePercent
	}
	return r.CPUTime / r.WallTime * 100
}

func (r Record) Validate() error {
	for _, v := range []float64{r.CPUTime, r.WallTime, r.RAMUsedMB} {
		if !finite(v) {
			return errors.Wrapf(ErrInvalidRecord, "task %q: non-finite value %v", r.Task, v)
		}
	}
	if r.CPUUsagePercent != nil && !finite(*r.CPUUsagePercent) {
		return errors.Wrapf(ErrInvalidRecord, "task %q: non-finite CPU_usage_percent", r.Task)
	}
	if !(r.WallTime > 0) {
		return errors.Wrapf(ErrInvalidRecord, "task %q: Wall_time must be > 0, got %v", r.Task, r.WallTime)
	}
	if r.CPUTime < 0 || r.RAMUsedMB < 0 {
		return errors.Wrapf(ErrInvalidRecord, "task %q: negative CPU_time or RAM_used_MB", r.Task)
	}
	return nil
}

// SystemSpec describes the machine a method ran on.
type SystemSpec struct {
	Name       string
	Cores      int
	TotalRAMMB float64
}

func (s SystemSpec) TotalRAMGB() float64 { return s.TotalRAMMB / 1024 }

func (s SystemSpec) Validate() error {
	if s.Cores < 1 {
		return errors.Wrapf(ErrInvalidRecord, "system %q: CPU_cores must be >= 1, got %d", s.Name, s.Cores)
	}
	if !(s.TotalRAMMB > 0) || math.IsInf(s.TotalRAMMB, 0) {
		return errors.Wrapf(ErrInvalidRecord, "system %q: total RAM must be > 0", s.Name)
	}
	return nil
}

// RecordsFromTable reconciles a requirements table to canonical columns and
// decodes its rows. Rows without a task name get defaultTask.
func RecordsFromTable(t *ingest.Table, defaultTask string) ([]Record, error) {
	if err := RecordAliases.Resolve(t, ColCPUTime, ColWallTime, ColRAMUsedMB); err != nil {
		return nil, err
	}
	hasUsage := t.Has(ColCPUUsagePercent)
	records := make([]Record, 0, t.Len())
	for i := range t.Rows {
		var r Record
		var err error
		if r.CPUTime, err = t.Float(i, ColCPUTime); err != nil {
			return nil, err
		}
		if r.WallTime, err = t.Float(i, ColWallTime); err != nil {
			return nil, err
		}
		if r.RAMUsedMB, err = t.Float(i, ColRAMUsedMB); err != nil {
			return nil, err
		}
		if hasUsage && t.Value(i, ColCPUUsagePercent) != "" {
			pct, err := t.Float(i, ColCPUUsagePercent)
			if err != nil {
				return nil, err
			}
			r.CPUUsagePercent = &pct
		}
		r.Task = t.Value(i, ColTask)
		if r.Task == "" {
			r.Task = defaultTask
		}
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(err, "%s line %d", t.Source, i+2)
		}
		records = append(records, r)
	}
	return records, nil
}

// SystemFromTable reads the first row of a system_info table. Total RAM is
// taken from the GB column when present (converted ×1024), otherwise from
// the MB column.
func SystemFromTable(t *ingest.Table, name string) (SystemSpec, error) {
	if err := SystemAliases.Resolve(t, ColCores); err != nil {
		return SystemSpec{}, err
	}
	if t.Len() == 0 {
		return SystemSpec{}, errors.Wrapf(ingest.ErrEmpty, "%s has no data rows", t.Source)
	}
	spec := SystemSpec{Name: name}
	cores, err := t.Float(0, ColCores)
	if err != nil {
		return SystemSpec{}, err
	}
	if !finite(cores) || cores != math.Trunc(cores) {
		return SystemSpec{}, errors.Wrapf(ErrInvalidRecord, "%s: CPU_cores must be a whole number, got %v", t.Source, cores)
	}
	spec.Cores = int(cores)

	switch {
	case t.Has(ColTotalRAMGB):
		gb, err := t.Float(0, ColTotalRAMGB)
		if err != nil {
			return SystemSpec{}, err
		}
		spec.TotalRAMMB = gb * 1024
	case t.Has(ColTotalRAMMB):
		if spec.TotalRAMMB, err = t.Float(0, ColTotalRAMMB); err != nil {
			return SystemSpec{}, err
		}
	default:
		return SystemSpec{}, &ingest.SchemaError{
			File:    t.Source,
			Column:  ColTotalRAMGB + " or " + ColTotalRAMMB,
			Aliases: append(SystemAliases.Accepted(ColTotalRAMGB), SystemAliases.Accepted(ColTotalRAMMB)...),
		}
	}
	if err := spec.Validate(); err != nil {
		return SystemSpec{}, errors.Wrap(err, t.Source)
	}
	return spec, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
