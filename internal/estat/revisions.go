package estat

import (
	"fmt"
	"sort"
	"time"
)

// Revisions maps a revision code (e.g. "04") to the date that revision of
// the classification took effect, formatted YYYY-MM-DD.
type Revisions map[string]string

// DefaultRevisions is the JSIC revision table used when no configuration
// overrides it.
func DefaultRevisions() Revisions {
	return Revisions{
		"04": "2023-07-01",
		"03": "2013-10-01",
		"02": "2007-11-01",
		"01": "2002-03-01",
	}
}

// Codes returns the revision codes in ascending order.
func (r Revisions) Codes() []string {
	codes := make([]string, 0, len(r))
	for code := range r {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Latest returns the newest revision code.
func (r Revisions) Latest() (string, bool) {
	codes := r.Codes()
	if len(codes) == 0 {
		return "", false
	}
	return codes[len(codes)-1], true
}

// ReleaseDate returns the release date of rev, or nil when the table does
// not know it.
func (r Revisions) ReleaseDate(rev string) *string {
	d, ok := r[rev]
	if !ok {
		return nil
	}
	return &d
}

// Validate checks that every release date is a real calendar date.
func (r Revisions) Validate() error {
	for _, code := range r.Codes() {
		if code == "" {
			return fmt.Errorf("revision code must not be empty")
		}
		if _, err := time.Parse(time.DateOnly, r[code]); err != nil {
			return fmt.Errorf("revision %s: release date %q is not YYYY-MM-DD", code, r[code])
		}
	}
	return nil
}
