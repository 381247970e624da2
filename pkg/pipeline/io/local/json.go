package local

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/estat-master/estat-master/pkg/pipeline/schema"
)

// orderedObject marshals one row with keys in column order.
type orderedObject struct {
	columns []string
	row     schema.Row
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	var out bytes.Buffer
	out.WriteByte('{')
	for i, col := range o.columns {
		if i > 0 {
			out.WriteByte(',')
		}
		buf.Reset()
		if err := enc.Encode(col); err != nil {
			return nil, err
		}
		out.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		out.WriteByte(':')

		v, ok := o.row.Value(col)
		if !ok {
			out.WriteString("null")
			continue
		}
		buf.Reset()
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		out.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

// WriteJSON writes rows as an indented JSON array of objects. Null values are
// written as JSON null; non-ASCII text is written as-is.
func WriteJSON[R schema.Row](w io.Writer, columns []string, rows []R) error {
	objs := make([]orderedObject, len(rows))
	for i, r := range rows {
		objs[i] = orderedObject{columns: columns, row: r}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(objs)
}

// ReadJSON reads a file written by WriteJSON.
func ReadJSON(r io.Reader) ([]Record, error) {
	var out []Record
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}
