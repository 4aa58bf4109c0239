package pipeline

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"spatialbench/internal/config"
	"spatialbench/internal/ingest"
	"spatialbench/internal/metrics"
	"spatialbench/internal/overlap"
	"spatialbench/internal/resources"
)

// Runner executes the subcommands against one configuration. Result tables
// are printed to Stdout; logging goes through zap.L().
type Runner struct {
	Config  config.Config
	Metrics *metrics.StageMetrics
	Stdout  io.Writer
	Stderr  io.Writer
}

func New(cfg config.Config, m *metrics.StageMetrics, stdout, stderr io.Writer) *Runner {
	if m == nil {
		m = metrics.New()
	}
	return &Runner{Config: cfg, Metrics: m, Stdout: stdout, Stderr: stderr}
}

func (r *Runner) readTable(ctx context.Context, path string) (*ingest.Table, error) {
	t, err := ingest.ReadTable(ctx, path, r.Config.MaxInputBytes)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("loaded table", zap.String("path", path), zap.Int("rows", t.Len()))
	return t, nil
}

func (r *Runner) options() (resources.Options, resources.Mode, error) {
	policy, err := resources.ParseRAMPolicy(r.Config.Comparison.RAMPolicy)
	if err != nil {
		return resources.Options{}, "", err
	}
	mode, err := resources.ParseMode(r.Config.Comparison.Mode)
	if err != nil {
		return resources.Options{}, "", err
	}
	return resources.Options{
		RAMPolicy: policy,
		Reference: resources.Reference{
			Cores: r.Config.Comparison.ReferenceCores,
			RAMGB: r.Config.Comparison.ReferenceRAMGB,
		},
	}, mode, nil
}

func (r *Runner) criteria() ([]overlap.Criterion, error) {
	out := make([]overlap.Criterion, 0, len(r.Config.Significance.Criteria))
	for _, c := range r.Config.Significance.Criteria {
		crit := overlap.Criterion{Name: c.Name}
		for _, cond := range c.Conditions {
			op, err := overlap.ParseOp(cond.Op)
			if err != nil {
				return nil, errors.Wrapf(err, "criterion %s", c.Name)
			}
			crit.Conditions = append(crit.Conditions, overlap.Condition{Column: cond.Column, Op: op, Threshold: cond.Threshold})
		}
		out = append(out, crit)
	}
	return out, nil
}
