package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const DefaultMaxBytes = 50 * 1024 * 1024

var ErrEmpty = errors.New("csv is empty")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFileLimited reads path, refusing files larger than limit bytes.
func ReadFileLimited(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	defer f.Close()
	lr := &io.LimitedReader{R: f, N: limit + 1}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if int64(len(b)) > limit {
		return nil, errors.Errorf("%s exceeds max input bytes limit (%d); set SPATIALBENCH_MAX_INPUT_BYTES to override", path, limit)
	}
	return b, nil
}

// ReadTable loads a CSV file with a header row.
func ReadTable(ctx context.Context, path string, limit int64) (*Table, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	raw, err := ReadFileLimited(path, limit)
	if err != nil {
		return nil, err
	}
	t, err := Parse(filepath.Base(path), raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	t.Path = path
	return t, nil
}

// Parse decodes CSV bytes. The first record is the header; header cells are
// trimmed and a leading UTF-8 BOM is dropped.
func Parse(source string, raw []byte) (*Table, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	r := csv.NewReader(bytes.NewReader(raw))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	return NewTable(source, header, records[1:]), nil
}
