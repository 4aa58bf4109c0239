package ingest

import (
	"encoding/csv"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// WriteCSV writes rows of a struct type to path, using `csv` tags as the
// header. When columns is non-empty only those columns are written, in that
// order. The parent directory is created if needed and an existing file is
// overwritten.
func WriteCSV[T any](path string, rows []T, columns ...string) error {
	fields, err := fieldsFromStruct(reflect.TypeOf((*T)(nil)).Elem(), columns)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()
	if err := encode(file, fields, rows, true); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return file.Close()
}

// ErrHeaderMismatch is returned when rows cannot be lined up with the header
// of the file they are appended to.
var ErrHeaderMismatch = errors.New("existing header shares no columns")

// AppendCSV appends rows to path, writing the header only when the file is
// new or empty. Rows appended to an existing file follow that file's header:
// columns are matched by folded name, columns the rows lack are left empty
// and fields the header lacks are dropped.
func AppendCSV[T any](path string, rows []T) error {
	fields, err := fieldsFromStruct(reflect.TypeOf((*T)(nil)).Elem(), nil)
	if err != nil {
		return err
	}
	existing, err := readHeader(path)
	if err != nil {
		return err
	}
	if existing != nil {
		if fields, err = alignFields(fields, existing); err != nil {
			return errors.Wrap(err, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}
	if stat.Size() > 0 {
		last := make([]byte, 1)
		if _, err := file.ReadAt(last, stat.Size()-1); err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		if last[0] != '\n' {
			if _, err := file.Write([]byte{'\n'}); err != nil {
				return errors.Wrapf(err, "append %s", path)
			}
		}
	}
	if err := encode(file, fields, rows, existing == nil); err != nil {
		return errors.Wrapf(err, "append %s", path)
	}
	return file.Close()
}

// readHeader returns the header of path, or nil when the file is missing or
// empty.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", path)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	}
	return header, nil
}

// alignFields orders fields by header. Header columns without a field get a
// blank placeholder.
func alignFields(fields []field, header []string) ([]field, error) {
	byName := make(map[string]field, len(fields))
	for _, f := range fields {
		byName[NormalizeName(f.name)] = f
	}
	out := make([]field, len(header))
	matched := 0
	for i, h := range header {
		f, ok := byName[NormalizeName(h)]
		if !ok {
			out[i] = field{name: h, index: -1}
			continue
		}
		out[i] = f
		matched++
	}
	if matched == 0 {
		return nil, errors.Wrapf(ErrHeaderMismatch, "header %s", strings.Join(header, ","))
	}
	return out, nil
}

// WriteTable writes a Table as-is.
func WriteTable(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.Write(t.Header); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return file.Close()
}

// Records renders rows as string records in header order, for printing.
func Records[T any](rows []T, columns ...string) ([]string, [][]string, error) {
	fields, err := fieldsFromStruct(reflect.TypeOf((*T)(nil)).Elem(), columns)
	if err != nil {
		return nil, nil, err
	}
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.name
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowFromStruct(reflect.ValueOf(r), fields))
	}
	return header, out, nil
}

// LoadCSV decodes rows into a struct type by matching `csv` tags to header
// names. Columns without a matching field are ignored.
func LoadCSV[T any](t *Table) ([]T, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	fields, err := fieldsFromStruct(typ, nil)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, t.Len())
	for i := range t.Rows {
		item := reflect.New(typ).Elem()
		for _, f := range fields {
			if !t.Has(f.name) {
				continue
			}
			v := t.Value(i, f.name)
			if err := setField(item.Field(f.index), v); err != nil {
				return nil, errors.Wrapf(ErrParse, "%s line %d column %s: %v", t.Source, i+2, f.name, err)
			}
		}
		out = append(out, item.Interface().(T))
	}
	return out, nil
}

type field struct {
	name  string
	index int
}

func fieldsFromStruct(t reflect.Type, columns []string) ([]field, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("%s is not a struct", t)
	}
	var all []field
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("csv")
		if tag == "" || tag == "-" {
			continue
		}
		all = append(all, field{name: strings.Split(tag, ",")[0], index: i})
	}
	if len(all) == 0 {
		return nil, errors.Errorf("no csv tags found in %s", t)
	}
	if len(columns) == 0 {
		return all, nil
	}
	byName := make(map[string]field, len(all))
	for _, f := range all {
		byName[f.name] = f
	}
	selected := make([]field, 0, len(columns))
	for _, c := range columns {
		f, ok := byName[c]
		if !ok {
			return nil, errors.Errorf("%s has no csv column %q", t, c)
		}
		selected = append(selected, f)
	}
	return selected, nil
}

func encode[T any](w io.Writer, fields []field, rows []T, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.name
		}
		if err := cw.Write(names); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := cw.Write(rowFromStruct(reflect.ValueOf(r), fields)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func rowFromStruct(v reflect.Value, fields []field) []string {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	row := make([]string, len(fields))
	for i, f := range fields {
		if f.index < 0 {
			continue
		}
		row[i] = FormatValue(v.Field(f.index))
	}
	return row
}

// FormatValue renders a cell. NaN and infinities are written as 0 so that
// downstream readers never meet non-numeric cells in numeric columns.
func FormatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return FormatFloat(v.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	}
	return ""
}

func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			// pandas writes integer counts as 12.0 once a column held a NaN.
			f, ferr := strconv.ParseFloat(value, 64)
			if ferr != nil || f != math.Trunc(f) {
				return err
			}
			n = int64(f)
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return errors.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}
