package pipeline

import (
	"context"

	"go.uber.org/zap"

	"spatialbench/internal/ingest"
	"spatialbench/internal/stats"
)

// Statistics aggregates every per-dataset comparison table by task.
func (r *Runner) Statistics(ctx context.Context) (*ingest.Table, error) {
	root := r.Config.Layout.Path(r.Config.Layout.ComparisonDir)
	done := r.Metrics.Stage("stats", "discover")
	paths, err := stats.Discover(ctx, root, r.Config.Layout.ComparisonFile)
	done()
	if err != nil {
		return nil, err
	}
	r.Metrics.FilesDiscovered(r.Config.Layout.ComparisonFile, len(paths))

	done = r.Metrics.Stage("stats", "load")
	combined, err := stats.Combine(ctx, paths, r.Config.MaxInputBytes)
	done()
	if err != nil {
		return nil, err
	}

	done = r.Metrics.Stage("stats", "aggregate")
	byTask, fields, err := stats.ByTask(combined)
	done()
	if err != nil {
		return nil, err
	}
	out := r.Config.StatisticsPath()
	flat := stats.Flatten(r.Config.Layout.StatisticsFile, byTask, fields)
	if err := ingest.WriteTable(out, flat); err != nil {
		return nil, err
	}
	r.Metrics.RowsWritten(r.Config.Layout.StatisticsFile, flat.Len())
	zap.L().Info("wrote statistics by task",
		zap.String("path", out),
		zap.Int("tasks", flat.Len()),
		zap.Int("fields", len(fields)))
	if err := printTable(r.Stdout, flat.Header, flat.Rows); err != nil {
		return nil, err
	}
	return flat, nil
}

// VennStatistics summarizes venn count files across dataset directories.
func (r *Runner) VennStatistics(ctx context.Context) ([]stats.VennSummary, error) {
	root := r.Config.Layout.Path(r.Config.Layout.ComparisonDir)
	done := r.Metrics.Stage("venn-stats", "collect")
	counts, err := stats.CollectVenn(ctx, root, r.Config.VennFiles, r.Config.MaxInputBytes)
	done()
	if err != nil {
		return nil, err
	}
	summary, err := stats.SummarizeVenn(counts, r.Config.VennFiles)
	if err != nil {
		return nil, err
	}
	out := r.Config.VennSummaryPath()
	if err := ingest.WriteCSV(out, summary); err != nil {
		return nil, err
	}
	r.Metrics.RowsWritten(r.Config.Layout.VennSummaryFile, len(summary))
	zap.L().Info("wrote venn summary", zap.String("path", out), zap.Int("rows", len(summary)))

	header, cells, err := ingest.Records(summary)
	if err != nil {
		return nil, err
	}
	if err := printTable(r.Stdout, header, cells); err != nil {
		return nil, err
	}
	return summary, nil
}
