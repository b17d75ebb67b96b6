// Package tabular renders Value trees as delimited text, one record per
// top-level array element.
package tabular

import (
	"bytes"
	"encoding/csv"
	"sort"
	"unicode/utf8"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/flatten"
	"github.com/mcncl/shapeshift/internal/models"
)

// Options controls the text layout.
type Options struct {
	Delimiter rune
}

// Table is a flattened document: the sorted header union and one row per
// record.
type Table struct {
	Headers []string
	Rows    []flatten.Row
}

// Build flattens every record of v. An Array root supplies one record per
// element; any other root is a single record.
func Build(v models.Value) (Table, error) {
	records := []models.Value{v}
	if v.Kind() == models.KindArray {
		records = v.Items()
	}

	rows := make([]flatten.Row, 0, len(records))
	for _, record := range records {
		row, err := flatten.Flatten(record)
		if err != nil {
			return Table{}, err
		}
		rows = append(rows, row)
	}
	return Table{Headers: Headers(rows), Rows: rows}, nil
}

// Headers returns the lexicographically sorted union of the rows' paths.
func Headers(rows []flatten.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for p := range row {
			seen[p] = struct{}{}
		}
	}
	headers := make([]string, 0, len(seen))
	for p := range seen {
		headers = append(headers, p)
	}
	sort.Strings(headers)
	return headers
}

// Record returns the fields of row in header order. Missing and Null cells
// are empty, Strings are raw and other scalars use their textual form.
func (t Table) Record(row flatten.Row) []string {
	fields := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		v, ok := row[h]
		if !ok || v.IsNull() {
			continue
		}
		if v.Kind() == models.KindString {
			fields[i] = v.AsString()
		} else {
			fields[i] = v.Text()
		}
	}
	return fields
}

// Marshal renders v as delimited text with a header line.
func Marshal(v models.Value, opts Options) ([]byte, error) {
	table, err := Build(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if opts.Delimiter != 0 {
		w.Comma = opts.Delimiter
	}

	if err := writeRecord(w, &buf, table.Headers); err != nil {
		return nil, errors.NewEncodingError("failed to write header", err)
	}
	for _, row := range table.Rows {
		if err := writeRecord(w, &buf, table.Record(row)); err != nil {
			return nil, errors.NewEncodingError("failed to write record", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.NewEncodingError("failed to finalize output", err)
	}

	out := buf.Bytes()
	if !utf8.Valid(out) {
		return nil, errors.NewEncodingError("output is not valid UTF-8", nil)
	}
	return out, nil
}

// writeRecord writes one CSV line. csv.Writer renders a record that is a
// single empty field as a blank line, which readers skip, so that case is
// written as an explicit quoted empty field.
func writeRecord(w *csv.Writer, buf *bytes.Buffer, record []string) error {
	if len(record) > 1 || (len(record) == 1 && record[0] != "") {
		return w.Write(record)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	buf.WriteString("\"\"\n")
	return nil
}
