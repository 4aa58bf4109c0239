package pipeline

import (
	"fmt"
	"io"

	"github.com/fbiville/markdown-table-formatter/pkg/markdown"
	"github.com/pkg/errors"
)

// printTable writes rows as a pretty-printed markdown table.
func printTable(w io.Writer, header []string, rows [][]string) error {
	formatted, err := markdown.NewTableFormatterBuilder().
		WithPrettyPrint().
		Build(header...).
		Format(rows)
	if err != nil {
		return errors.Wrap(err, "format table")
	}
	_, err = fmt.Fprintln(w, formatted)
	return err
}
