package stats

import (
	"math"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"spatialbench/internal/ingest"
)

const ColTask = "Task"

// Statistics are the per-field aggregates, in output order.
var Statistics = []string{"mean", "min", "max", "std"}

// NonNumeric columns are never aggregated even when their cells parse.
var NonNumeric = []string{ColTask, "System", ColSubfolder}

// Summary aggregates one field of one task group. Std is NaN for fewer than
// two samples; every value is NaN when the group has no samples.
type Summary struct {
	Field string
	N     int
	Mean  float64
	Min   float64
	Max   float64
	Std   float64
}

func (s Summary) value(name string) float64 {
	switch name {
	case "mean":
		return s.Mean
	case "min":
		return s.Min
	case "max":
		return s.Max
	case "std":
		return s.Std
	}
	return math.NaN()
}

// TaskStatistic holds the summaries of every numeric field for one task.
type TaskStatistic struct {
	Task   string
	Fields []Summary
}

// Summarize computes mean, min, max and sample standard deviation of xs.
func Summarize(field string, xs []float64) Summary {
	s := Summary{Field: field, N: len(xs), Mean: math.NaN(), Min: math.NaN(), Max: math.NaN(), Std: math.NaN()}
	if len(xs) == 0 {
		return s
	}
	s.Mean = stat.Mean(xs, nil)
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	if len(xs) > 1 {
		s.Std = stat.StdDev(xs, nil)
	}
	return s
}

// NumericFields lists the aggregatable columns of t in header order.
func NumericFields(t *ingest.Table) []string {
	return lo.Filter(t.Header, func(h string, _ int) bool {
		return !lo.Contains(NonNumeric, h) && t.Numeric(h)
	})
}

// ByTask groups rows by Task, sorted by task name, and summarizes every
// numeric field. Empty cells are skipped.
func ByTask(t *ingest.Table) ([]TaskStatistic, []string, error) {
	if !t.Has(ColTask) {
		return nil, nil, &ingest.SchemaError{File: t.Source, Column: ColTask}
	}
	fields := NumericFields(t)
	rows := lo.GroupBy(lo.Range(t.Len()), func(i int) string { return t.Value(i, ColTask) })
	tasks := lo.Keys(rows)
	sort.Strings(tasks)

	out := make([]TaskStatistic, 0, len(tasks))
	for _, task := range tasks {
		ts := TaskStatistic{Task: task}
		for _, f := range fields {
			var xs []float64
			for _, i := range rows[task] {
				if t.Value(i, f) == "" {
					continue
				}
				x, err := t.Float(i, f)
				if err != nil {
					return nil, nil, err
				}
				xs = append(xs, x)
			}
			ts.Fields = append(ts.Fields, Summarize(f, xs))
		}
		out = append(out, ts)
	}
	return out, fields, nil
}

// Flatten lays statistics out as Task, <field>_<stat>, ... with undefined
// values written as 0.
func Flatten(source string, stats []TaskStatistic, fields []string) *ingest.Table {
	header := []string{ColTask}
	for _, f := range fields {
		for _, s := range Statistics {
			header = append(header, f+"_"+s)
		}
	}
	rows := make([][]string, 0, len(stats))
	for _, ts := range stats {
		row := []string{ts.Task}
		for _, sum := range ts.Fields {
			for _, s := range Statistics {
				row = append(row, ingest.FormatFloat(sum.value(s)))
			}
		}
		rows = append(rows, row)
	}
	return ingest.NewTable(source, header, rows)
}

// Median of xs; NaN for an empty slice.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func fixed2(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0.00"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
