// Package cache keeps fetched example pages in SQLite so repeated runs over
// the same revision do not refetch them.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/estat-master/estat-master/internal/jsic"
)

// Scope identifies one upstream revision: the e-Stat base URL the pages came
// from, the classification type and the revision code.
type Scope struct {
	Source             string
	ClassificationType string
	Revision           string
}

func (s Scope) String() string {
	return s.Source + " " + s.ClassificationType + "/" + s.Revision
}

// DB caches the scraped fields of example pages, keyed by scope and class
// code. Release dates are not stored; they come from the revision table.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the cache at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Workers write concurrently; one connection serializes them.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{`PRAGMA journal_mode = WAL;`, `PRAGMA busy_timeout = 5000;`} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS example_pages (
  source TEXT NOT NULL,
  classificationType TEXT NOT NULL,
  revision TEXT NOT NULL,
  code TEXT NOT NULL,
  example TEXT,
  unsuitableExample TEXT,
  fetchedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (source, classificationType, revision, code)
);
`
	_, err := d.conn.Exec(schema)
	return err
}

// Get returns the cached record, if any. ReleaseDate is always nil.
func (d *DB) Get(ctx context.Context, scope Scope, code string) (jsic.ExampleRecord, bool, error) {
	var example, unsuitable sql.NullString
	err := d.conn.QueryRowContext(ctx, `
SELECT example, unsuitableExample
FROM example_pages
WHERE source = ? AND classificationType = ? AND revision = ? AND code = ?`,
		scope.Source, scope.ClassificationType, scope.Revision, code,
	).Scan(&example, &unsuitable)
	if errors.Is(err, sql.ErrNoRows) {
		return jsic.ExampleRecord{}, false, nil
	}
	if err != nil {
		return jsic.ExampleRecord{}, false, fmt.Errorf("read cached example %s %s: %w", scope, code, err)
	}
	return jsic.ExampleRecord{
		Code:              code,
		Example:           fromNull(example),
		UnsuitableExample: fromNull(unsuitable),
	}, true, nil
}

// Put stores the scraped fields of rec, replacing any earlier copy.
func (d *DB) Put(ctx context.Context, scope Scope, rec jsic.ExampleRecord) error {
	_, err := d.conn.ExecContext(ctx, `
INSERT INTO example_pages (source, classificationType, revision, code, example, unsuitableExample, fetchedAt)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(source, classificationType, revision, code) DO UPDATE SET
  example = excluded.example,
  unsuitableExample = excluded.unsuitableExample,
  fetchedAt = CURRENT_TIMESTAMP`,
		scope.Source, scope.ClassificationType, scope.Revision, rec.Code,
		toNull(rec.Example), toNull(rec.UnsuitableExample),
	)
	if err != nil {
		return fmt.Errorf("store example %s %s: %w", scope, rec.Code, err)
	}
	return nil
}

// Count returns the number of cached records in scope.
func (d *DB) Count(ctx context.Context, scope Scope) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM example_pages WHERE source = ? AND classificationType = ? AND revision = ?`,
		scope.Source, scope.ClassificationType, scope.Revision,
	).Scan(&n)
	return n, err
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func toNull(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
