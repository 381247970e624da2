package estat

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/estat-master/estat-master/internal/jsic"
)

// masterPreambleRows is the number of title/header lines above the data in
// the e-Stat download.
const masterPreambleRows = 3

// FetchMaster downloads the code list of one classification revision.
func (c *Client) FetchMaster(ctx context.Context, classificationType, revision string) ([]jsic.RawRow, error) {
	rev, err := c.ResolveRevision(revision)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("bKbn", classificationType)
	q.Set("kaiteiCode", rev)
	q.Set("charset", c.charset)

	body, err := c.get(ctx, "downloadMaster", c.resolve("term/download", q), c.masterTimeout)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &SourceError{Op: "downloadMaster", Err: errors.New("empty response body")}
	}
	rows, err := ParseMaster(bytes.NewReader(body), c.charset)
	if err != nil {
		return nil, &SourceError{Op: "downloadMaster", Err: err}
	}
	return rows, nil
}

// ParseMaster decodes a code list download. The first three lines are
// skipped; the remaining records are code, code name and description.
// An empty description is null.
func ParseMaster(r io.Reader, charset string) ([]jsic.RawRow, error) {
	var dec transform.Transformer = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	if strings.EqualFold(charset, CharsetShiftJIS) {
		dec = japanese.ShiftJIS.NewDecoder()
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []jsic.RawRow
	for line := 0; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse master csv: %w", err)
		}
		if line < masterPreambleRows {
			continue
		}
		row := jsic.RawRow{Code: field(rec, 0), CodeName: field(rec, 1)}
		if desc := field(rec, 2); desc != "" {
			row.Desc = &desc
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New("master csv has no data rows")
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}
