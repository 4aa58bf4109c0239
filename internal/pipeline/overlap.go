package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"spatialbench/internal/config"
	"spatialbench/internal/ingest"
	"spatialbench/internal/overlap"
	"spatialbench/internal/render"
)

type OverlapOptions struct {
	// Gene, when set, is looked up in both result tables.
	Gene  string
	Plots bool
}

// Overlap compares the significant-gene sets of both methods for dataset,
// writing one venn_counts.<criterion>.csv per configured criterion.
func (r *Runner) Overlap(ctx context.Context, dataset string, opt OverlapOptions) ([]overlap.Result, error) {
	criteria, err := r.criteria()
	if err != nil {
		return nil, err
	}
	ma, mb := r.Config.Methods.A, r.Config.Methods.B
	log := zap.L().With(zap.String("dataset", dataset))

	done := r.Metrics.Stage("overlap", "load")
	a, err := r.loadGenes(ctx, ma, dataset)
	if err != nil {
		done()
		return nil, err
	}
	b, err := r.loadGenes(ctx, mb, dataset)
	done()
	if err != nil {
		return nil, err
	}

	results := make([]overlap.Result, 0, len(criteria))
	for _, crit := range criteria {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sigA, err := a.Significant(crit)
		if err != nil {
			return nil, errors.Wrap(err, ma.Name)
		}
		sigB, err := b.Significant(crit)
		if err != nil {
			return nil, errors.Wrap(err, mb.Name)
		}
		res := overlap.Compare(ma.Name, sigA, mb.Name, sigB)
		path := r.Config.VennCountsPath(dataset, crit.Name)
		if err := ingest.WriteCSV(path, res.Counts()); err != nil {
			return nil, err
		}
		r.Metrics.RowsWritten(filepath.Base(path), 3)
		log.Info("significant gene overlap",
			zap.String("criterion", crit.Name),
			zap.Int("only_"+ma.Name, len(res.OnlyA)),
			zap.Int("only_"+mb.Name, len(res.OnlyB)),
			zap.Int("both", len(res.Both)),
			zap.Int("union", res.Union()))

		fmt.Fprintf(r.Stdout, "\nSignificant genes (%s):\n", crit.Name)
		header, cells, err := ingest.Records(res.Counts())
		if err != nil {
			return nil, err
		}
		if err := printTable(r.Stdout, header, cells); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	if !opt.Plots && opt.Gene == "" {
		return results, nil
	}
	// Scatter highlighting and lookups use the first criterion.
	pairs, err := overlap.Join(a, b, ma.Statistic, mb.Statistic, results[0].Both)
	if err != nil {
		return nil, err
	}
	if opt.Plots {
		if err := r.plots(dataset, criteria, results, pairs); err != nil {
			return nil, err
		}
	}
	if opt.Gene != "" {
		r.lookup(pairs, opt.Gene)
	}
	return results, nil
}

func (r *Runner) loadGenes(ctx context.Context, m config.Method, dataset string) (*overlap.GeneTable, error) {
	t, err := r.readTable(ctx, r.Config.ResultsPath(m, dataset))
	if err != nil {
		return nil, errors.Wrapf(err, "load %s results", m.Name)
	}
	if col := r.Config.Significance.GeneColumn; col != overlap.ColGene && t.Has(col) && !t.Has(overlap.ColGene) {
		t.Rename(col, overlap.ColGene)
	}
	return overlap.NewGeneTable(m.Name, t)
}

func (r *Runner) plots(dataset string, criteria []overlap.Criterion, results []overlap.Result, pairs []overlap.Pair) error {
	done := r.Metrics.Stage("overlap", "render")
	defer done()
	dir := r.Config.DatasetDir(dataset)
	for i, res := range results {
		path := filepath.Join(dir, "venn."+criteria[i].Name+".png")
		if err := render.Venn(path, "Overlap of Significant Genes ("+criteria[i].Name+")", res); err != nil {
			return err
		}
		zap.L().Info("rendered plot", zap.String("path", path))
	}
	x := render.Axis{Method: r.Config.Methods.A.Name, Stat: r.Config.Methods.A.Statistic}
	y := render.Axis{Method: r.Config.Methods.B.Name, Stat: r.Config.Methods.B.Statistic}
	scatter := filepath.Join(dir, "scatter.png")
	if err := render.Scatter(scatter, pairs, x, y); err != nil {
		return err
	}
	rank := filepath.Join(dir, "rank_rank.png")
	if err := render.RankRank(rank, pairs, x, y); err != nil {
		return err
	}
	zap.L().Info("rendered plots", zap.String("scatter", scatter), zap.String("rank_rank", rank))
	return nil
}

// lookup prints both statistics for gene. A missing gene is reported and the
// run continues.
func (r *Runner) lookup(pairs []overlap.Pair, gene string) {
	p, err := overlap.Lookup(pairs, gene)
	if err != nil {
		zap.L().Warn("gene lookup failed", zap.String("gene", gene), zap.Error(err))
		fmt.Fprintf(r.Stdout, "\ngene %s not found in both result tables\n", gene)
		return
	}
	ma, mb := r.Config.Methods.A, r.Config.Methods.B
	fmt.Fprintf(r.Stdout, "\n%s %s: %s\n", ma.Name, ma.Statistic, strconv.FormatFloat(p.A, 'g', -1, 64))
	fmt.Fprintf(r.Stdout, "%s %s: %s\n", mb.Name, mb.Statistic, strconv.FormatFloat(p.B, 'g', -1, 64))
}
