package local

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/estat-master/estat-master/pkg/pipeline/schema"
)

// WriteCSV writes a header row followed by one record per row. Null values
// are written as empty fields.
func WriteCSV[R schema.Row](w io.Writer, columns []string, rows []R) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	rec := make([]string, len(columns))
	for _, r := range rows {
		for i, col := range columns {
			v, _ := r.Value(col)
			rec[i] = v
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a file written by WriteCSV. Empty fields read back as null.
//
// Extra columns are kept. Every name in columns must be present.
func ReadCSV(r io.Reader, columns []string) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		header[i] = name
		index[name] = i
	}
	for _, name := range columns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var out []Record
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(Record, len(header))
		for i, name := range header {
			if i >= len(rec) || rec[i] == "" {
				row[name] = nil
				continue
			}
			v := rec[i]
			row[name] = &v
		}
		out = append(out, row)
	}
}
