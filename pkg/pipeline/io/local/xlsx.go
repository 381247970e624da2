package local

import (
	"fmt"
	"io"

	"github.com/estat-master/estat-master/pkg/pipeline/schema"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the table in XLSX output.
const SheetName = "master"

// WriteXLSX writes rows to a single worksheet: a header row, then one row per
// record. Null values are left as empty cells.
func WriteXLSX[R schema.Row](w io.Writer, columns []string, rows []R) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, row := range rows {
		cells := make([]any, len(columns))
		for i, col := range columns {
			if v, ok := row.Value(col); ok {
				cells[i] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// ReadXLSX reads the table written by WriteXLSX. Empty cells read back as null.
func ReadXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", SheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", SheetName)
	}
	header := rows[0]
	out := make([]Record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		rec := make(Record, len(header))
		for i, name := range header {
			if i >= len(cells) || cells[i] == "" {
				rec[name] = nil
				continue
			}
			v := cells[i]
			rec[name] = &v
		}
		out = append(out, rec)
	}
	return out, nil
}
