package cache

import (
	"context"

	"github.com/estat-master/estat-master/internal/estat"
	"github.com/estat-master/estat-master/internal/jsic"
)

// Fetcher serves example records from the cache and falls through to Next on
// a miss, storing what Next returns. Failed fetches are not cached.
type Fetcher struct {
	DB                 *DB
	Next               estat.ExampleFetcher
	Source             string // base URL of the upstream Next talks to
	ClassificationType string
	// Revisions supplies the release date of cached records.
	Revisions estat.Revisions
}

func (f *Fetcher) scope(revision string) Scope {
	return Scope{Source: f.Source, ClassificationType: f.ClassificationType, Revision: revision}
}

// Cached returns the cached record for code without calling Next.
func (f *Fetcher) Cached(ctx context.Context, code, revision string) (jsic.ExampleRecord, bool, error) {
	rec, ok, err := f.DB.Get(ctx, f.scope(revision), code)
	if err != nil || !ok {
		return jsic.ExampleRecord{}, false, err
	}
	rec.ReleaseDate = f.Revisions.ReleaseDate(revision)
	return rec, true, nil
}

// FetchExample implements estat.ExampleFetcher. revision must already be
// resolved, since it is part of the cache key.
func (f *Fetcher) FetchExample(ctx context.Context, code, revision string) (jsic.ExampleRecord, error) {
	rec, ok, err := f.Cached(ctx, code, revision)
	if err != nil {
		return jsic.ExampleRecord{}, err
	}
	if ok {
		return rec, nil
	}

	rec, err = f.Next.FetchExample(ctx, code, revision)
	if err != nil {
		return jsic.ExampleRecord{}, err
	}
	if err := f.DB.Put(ctx, f.scope(revision), rec); err != nil {
		return jsic.ExampleRecord{}, err
	}
	return rec, nil
}
