package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"spatialbench/internal/config"
	"spatialbench/internal/ingest"
	"spatialbench/internal/resources"
)

// Compare builds requirements_comparison.csv for dataset from both methods'
// requirements and system_info tables.
func (r *Runner) Compare(ctx context.Context, dataset string) ([]resources.ComparisonRow, error) {
	opt, mode, err := r.options()
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("dataset", dataset), zap.String("mode", string(mode)))

	done := r.Metrics.Stage("compare", "load")
	inputs := make([]resources.MethodInput, 0, 2)
	for _, m := range []config.Method{r.Config.Methods.A, r.Config.Methods.B} {
		in, err := r.loadMethod(ctx, m, dataset)
		if err != nil {
			done()
			return nil, errors.Wrapf(err, "load %s", m.Name)
		}
		log.Info("loaded method records",
			zap.String("method", m.Name),
			zap.Int("records", len(in.Records)),
			zap.Int("cores", in.System.Cores),
			zap.Float64("ram_gb", in.System.TotalRAMGB()))
		inputs = append(inputs, in)
	}
	done()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done = r.Metrics.Stage("compare", "aggregate")
	rows, err := resources.Compare(inputs, opt)
	done()
	if err != nil {
		return nil, err
	}

	out := r.Config.ComparisonPath(dataset)
	done = r.Metrics.Stage("compare", "write")
	err = ingest.WriteCSV(out, rows, mode.Columns()...)
	done()
	if err != nil {
		return nil, err
	}
	r.Metrics.RowsWritten(r.Config.Layout.ComparisonFile, len(rows))
	log.Info("wrote comparison", zap.String("path", out), zap.Int("rows", len(rows)))

	header, cells, err := ingest.Records(rows, mode.Columns()...)
	if err != nil {
		return nil, err
	}
	if err := printTable(r.Stdout, header, cells); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Runner) loadMethod(ctx context.Context, m config.Method, dataset string) (resources.MethodInput, error) {
	req, err := r.readTable(ctx, r.Config.RequirementsPath(m, dataset))
	if err != nil {
		return resources.MethodInput{}, err
	}
	records, err := resources.RecordsFromTable(req, m.Task)
	if err != nil {
		return resources.MethodInput{}, err
	}
	sys, err := r.readTable(ctx, r.Config.SystemPath(m, dataset))
	if err != nil {
		return resources.MethodInput{}, err
	}
	spec, err := resources.SystemFromTable(sys, m.Name)
	if err != nil {
		return resources.MethodInput{}, err
	}
	return resources.MethodInput{System: spec, Task: m.Task, Collapse: m.Collapse, Records: records}, nil
}
