package resources

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// RAMPolicy selects how RAM_used_MB of several sub-tasks is collapsed.
type RAMPolicy string

const (
	// RAMPeak keeps the largest sub-task value: the peak memory a run needed.
	RAMPeak RAMPolicy = "max"
	// RAMCumulative sums sub-task values: the total memory cost of a run.
	RAMCumulative RAMPolicy = "sum"
)

func ParseRAMPolicy(s string) (RAMPolicy, error) {
	switch RAMPolicy(s) {
	case RAMPeak, RAMCumulative:
		return RAMPolicy(s), nil
	}
	return "", errors.Errorf("unknown RAM policy %q (want max or sum)", s)
}

// Mode selects the output schema.
type Mode string

const (
	ModeBasic      Mode = "basic"
	ModeNormalized Mode = "normalized"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBasic, ModeNormalized:
		return Mode(s), nil
	}
	return "", errors.Errorf("unknown comparison mode %q (want basic or normalized)", s)
}

// Reference is the machine that normalized values are scaled to.
type Reference struct {
	Cores int
	RAMGB float64
}

var DefaultReference = Reference{Cores: 8, RAMGB: 8}

type Options struct {
	RAMPolicy RAMPolicy
	Reference Reference
}

// MethodInput is everything known about one method on one dataset.
type MethodInput struct {
	System SystemSpec
	// Task labels the collapsed row.
	Task     string
	Collapse bool
	Records  []Record
}

// ComparisonRow is one output line of requirements_comparison.csv.
type ComparisonRow struct {
	Task                string  `csv:"Task"`
	CPUTime             float64 `csv:"CPU_time"`
	CPUTimeNormalized   float64 `csv:"CPU_time_normalized"`
	WallTime            float64 `csv:"Wall_time"`
	WallTimeNormalized  float64 `csv:"Wall_time_normalized"`
	CPUUsagePercent     float64 `csv:"CPU_usage_percent"`
	RAMUsedMB           float64 `csv:"RAM_used_MB"`
	RAMUsedNormalizedMB float64 `csv:"RAM_used_normalized_MB"`
	RAMPercent          float64 `csv:"RAM_percent"`
	CPUEfficiency       float64 `csv:"CPU_efficiency"`
	RAMEfficiency       float64 `csv:"RAM_efficiency"`
	System              string  `csv:"System"`
	CPUCores            int     `csv:"CPU_cores"`
	TotalRAMGB          float64 `csv:"Total_RAM_GB"`
}

var (
	NormalizedColumns = []string{
		"Task", "CPU_time", "CPU_time_normalized", "Wall_time", "Wall_time_normalized",
		"CPU_usage_percent", "RAM_used_MB", "RAM_used_normalized_MB", "RAM_percent",
		"CPU_efficiency", "RAM_efficiency", "System", "CPU_cores", "Total_RAM_GB",
	}
	BasicColumns = []string{
		"Task", "CPU_time", "Wall_time", "CPU_usage_percent", "RAM_used_MB",
		"CPU_efficiency", "RAM_efficiency", "System",
	}
)

func (m Mode) Columns() []string {
	if m == ModeBasic {
		return BasicColumns
	}
	return NormalizedColumns
}

// Collapse folds sub-task records into one summary record. CPU and wall
// times are summed; RAM follows policy. CPU usage is re-derived from the
// summed times.
func Collapse(task string, records []Record, policy RAMPolicy) (Record, error) {
	if len(records) == 0 {
		return Record{}, errors.Wrapf(ErrInvalidRecord, "task %q: no records to collapse", task)
	}
	ram := lo.Map(records, func(r Record, _ int) float64 { return r.RAMUsedMB })
	out := Record{
		Task:     task,
		CPUTime:  lo.SumBy(records, func(r Record) float64 { return r.CPUTime }),
		WallTime: lo.SumBy(records, func(r Record) float64 { return r.WallTime }),
	}
	switch policy {
	case RAMPeak:
		out.RAMUsedMB = lo.Max(ram)
	case RAMCumulative:
		out.RAMUsedMB = lo.Sum(ram)
	default:
		return Record{}, errors.Errorf("unknown RAM policy %q", policy)
	}
	return out, out.Validate()
}

// Normalize scales measured values to the reference machine:
//
//	CPU_time_normalized    = CPU_time    × ref_cores / cores
//	Wall_time_normalized   = Wall_time   × ref_cores / cores
//	RAM_used_normalized_MB = RAM_used_MB × ref_RAM_GB / RAM_GB
//
// This is a linear approximation that assumes usage scales inversely with
// available capacity. It is not a measured rescaling. When the machine
// matches the reference the factors are exactly 1 and values are unchanged.
func Normalize(r Record, sys SystemSpec, ref Reference) (cpu, wall, ram float64) {
	cpuFactor := float64(ref.Cores) / float64(sys.Cores)
	ramFactor := ref.RAMGB / sys.TotalRAMGB()
	return r.CPUTime * cpuFactor, r.WallTime * cpuFactor, r.RAMUsedMB * ramFactor
}

// NewRow derives efficiencies and normalized values for one record.
func NewRow(r Record, sys SystemSpec, ref Reference) ComparisonRow {
	cpuNorm, wallNorm, ramNorm := Normalize(r, sys, ref)
	ramEff := r.RAMUsedMB / sys.TotalRAMMB
	return ComparisonRow{
		Task:                r.Task,
		CPUTime:             r.CPUTime,
		CPUTimeNormalized:   cpuNorm,
		WallTime:            r.WallTime,
		WallTimeNormalized:  wallNorm,
		CPUUsagePercent:     r.UsagePercent(),
		RAMUsedMB:           r.RAMUsedMB,
		RAMUsedNormalizedMB: ramNorm,
		RAMPercent:          ramEff * 100,
		CPUEfficiency:       r.CPUTime / (float64(sys.Cores) * r.WallTime),
		RAMEfficiency:       ramEff,
		System:              sys.Name,
		CPUCores:            sys.Cores,
		TotalRAMGB:          sys.TotalRAMGB(),
	}
}

// Compare builds the comparison table, one block of rows per method in
// input order.
func Compare(inputs []MethodInput, opt Options) ([]ComparisonRow, error) {
	if opt.Reference.Cores < 1 || !(opt.Reference.RAMGB > 0) {
		return nil, errors.Errorf("invalid reference system %+v", opt.Reference)
	}
	var rows []ComparisonRow
	for _, in := range inputs {
		if err := in.System.Validate(); err != nil {
			return nil, err
		}
		records := in.Records
		if in.Collapse {
			summary, err := Collapse(in.Task, in.Records, opt.RAMPolicy)
			if err != nil {
				return nil, errors.Wrapf(err, "method %s", in.System.Name)
			}
			records = []Record{summary}
		}
		for _, r := range records {
			if err := r.Validate(); err != nil {
				return nil, errors.Wrapf(err, "method %s", in.System.Name)
			}
			rows = append(rows, NewRow(r, in.System, opt.Reference))
		}
	}
	return rows, nil
}
