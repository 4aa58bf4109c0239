package stats

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"spatialbench/internal/ingest"
	"spatialbench/internal/overlap"
)

// VennSummary is one row of venn_statistics_summary.csv.
type VennSummary struct {
	File     string `csv:"File"`
	Category string `csv:"Category"`
	Subdirs  int    `csv:"Subdirs"`
	Total    int    `csv:"Total"`
	Mean     string `csv:"Mean"`
	Median   string `csv:"Median"`
	Min      int    `csv:"Min"`
	Max      int    `csv:"Max"`
	StdDev   string `csv:"Std_dev"`
}

// VennCounts maps file name -> category -> one count per dataset directory.
type VennCounts map[string]map[string][]int

func (v VennCounts) add(file, category string, count int) {
	if v[file] == nil {
		v[file] = map[string][]int{}
	}
	v[file][category] = append(v[file][category], count)
}

// CollectVenn reads every file in files from each directory below root,
// excluding root itself. Missing or unreadable files are logged and skipped.
func CollectVenn(ctx context.Context, root string, files []string, limit int64) (VennCounts, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(ErrNoInputs, "scan %s: %v", root, err)
	}
	sort.Strings(dirs)

	counts := VennCounts{}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, name := range files {
			path := filepath.Join(dir, name)
			rows, err := readVenn(ctx, path, limit)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					zap.L().Warn("venn counts not found", zap.String("path", path))
				} else {
					zap.L().Warn("skipping venn counts", zap.String("path", path), zap.Error(err))
				}
				continue
			}
			for _, r := range rows {
				counts.add(name, r.Category, r.Count)
			}
			zap.L().Debug("loaded venn counts", zap.String("path", path))
		}
	}
	return counts, nil
}

func readVenn(ctx context.Context, path string, limit int64) ([]overlap.VennCount, error) {
	t, err := ingest.ReadTable(ctx, path, limit)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"Category", "Count"} {
		if !t.Has(col) {
			return nil, &ingest.SchemaError{File: path, Column: col}
		}
	}
	return ingest.LoadCSV[overlap.VennCount](t)
}

// SummarizeVenn produces one row per (file, category), files in the given
// order and categories sorted.
func SummarizeVenn(counts VennCounts, files []string) ([]VennSummary, error) {
	var out []VennSummary
	for _, file := range files {
		byCategory := counts[file]
		categories := lo.Keys(byCategory)
		sort.Strings(categories)
		for _, c := range categories {
			n := byCategory[c]
			xs := lo.Map(n, func(v int, _ int) float64 { return float64(v) })
			s := Summarize(c, xs)
			out = append(out, VennSummary{
				File:     file,
				Category: c,
				Subdirs:  len(n),
				Total:    lo.Sum(n),
				Mean:     fixed2(s.Mean),
				Median:   fixed2(Median(xs)),
				Min:      lo.Min(n),
				Max:      lo.Max(n),
				StdDev:   fixed2(s.Std),
			})
		}
	}
	if len(out) == 0 {
		return nil, errors.Wrap(ErrNoInputs, "no venn counts collected")
	}
	return out, nil
}
