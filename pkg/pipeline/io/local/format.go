package local

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/estat-master/estat-master/pkg/pipeline/core"
	"github.com/estat-master/estat-master/pkg/pipeline/schema"
)

// Format is an output file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported output formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatXLSX}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: output format %q", core.ErrUnsupportedFormat, raw)
}

// Record is one row read back from an output file. A nil value is null.
type Record map[string]*string

// Value implements schema.Row.
func (r Record) Value(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Write encodes rows in format, with columns in the given order.
func Write[R schema.Row](w io.Writer, format Format, columns []string, rows []R) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, columns, rows)
	case FormatCSV:
		return WriteCSV(w, columns, rows)
	case FormatXLSX:
		return WriteXLSX(w, columns, rows)
	}
	return fmt.Errorf("%w: output format %q", core.ErrUnsupportedFormat, string(format))
}

// WriteFile writes rows to path through a temporary file in the same
// directory, so path only ever holds a complete artifact.
func WriteFile[R schema.Row](path string, format Format, columns []string, rows []R) (err error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Write(tmp, format, columns, rows); err != nil {
		return fmt.Errorf("write %s output: %w", format, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}
