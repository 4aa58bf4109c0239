package stats

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"spatialbench/internal/ingest"
)

var ErrNoInputs = errors.New("no input files found")

// ColSubfolder names the dataset directory a combined row came from.
const ColSubfolder = "Subfolder"

// Discover walks root and returns every file called name, sorted by path.
// Finding nothing is an error.
func Discover(ctx context.Context, root, name string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = append(found, path)
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(ErrNoInputs, "%s does not exist", root)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", root)
	}
	if len(found) == 0 {
		return nil, errors.Wrapf(ErrNoInputs, "no %s under %s", name, root)
	}
	sort.Strings(found)
	return found, nil
}

// Combine loads every path and stacks them, tagging each row with the name of
// its parent directory. Files holding only a header count as no input.
func Combine(ctx context.Context, paths []string, limit int64) (*ingest.Table, error) {
	tables := make([]*ingest.Table, 0, len(paths))
	for _, p := range paths {
		t, err := ingest.ReadTable(ctx, p, limit)
		if err != nil {
			return nil, err
		}
		t.AddColumn(ColSubfolder, filepath.Base(filepath.Dir(p)))
		tables = append(tables, t)
	}
	combined := ingest.Concat("combined", tables...)
	if combined.Len() == 0 {
		return nil, errors.Wrapf(ErrNoInputs, "no rows in %d files", len(paths))
	}
	zap.L().Info("collected comparison rows",
		zap.Int("rows", combined.Len()),
		zap.Int("files", len(paths)))
	return combined, nil
}
