package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/estat-master/estat-master/internal/estat"
	"github.com/estat-master/estat-master/internal/jsic"
	"github.com/estat-master/estat-master/pkg/pipeline/core"
	"github.com/estat-master/estat-master/pkg/pipeline/io/local"
	"github.com/estat-master/estat-master/pkg/pipeline/schema"
	"github.com/estat-master/estat-master/pkg/pipeline/worker"
)

// progressEvery is how often, in completed example fetches, progress is logged.
const progressEvery = 50

// RevisionResolver turns an empty revision into the latest one.
type RevisionResolver interface {
	ResolveRevision(rev string) (string, error)
}

// CachedExamples looks up example records without touching the network.
type CachedExamples interface {
	Cached(ctx context.Context, code, revision string) (jsic.ExampleRecord, bool, error)
}

// Extracted is everything one JSIC run fetched.
type Extracted struct {
	Revision string
	Master   []jsic.RawRow
	Examples []jsic.ExampleRecord
}

// Stats counts what a run did.
type Stats struct {
	Revision      string
	MasterRows    int
	ClassCodes    int
	Fetched       int
	CacheHits     int
	Skipped       int
	OutputRows    int
	ExtractTime   time.Duration
	TransformTime time.Duration
	LoadTime      time.Duration
}

// JSICETL fetches a JSIC revision, builds the master table and writes it.
type JSICETL struct {
	ClassificationType string
	Revision           string
	DebugCodeLimit     int
	OutputPath         string
	OutputFormat       local.Format

	Master   estat.MasterFetcher
	Examples estat.ExampleFetcher
	Resolver RevisionResolver
	// Cache, when set, is consulted before dispatch so cached classes do not
	// wait on the request limiter.
	Cache  CachedExamples
	Worker worker.Options
	Logger *slog.Logger

	stats Stats
}

var _ core.ETL[*Extracted, []jsic.MasterRow] = (*JSICETL)(nil)

// Stats returns the counters of the last run.
func (e *JSICETL) Stats() Stats {
	return e.stats
}

// Extract downloads the code list and the example page of every class.
func (e *JSICETL) Extract(ctx context.Context) (*Extracted, error) {
	start := time.Now()
	defer func() { e.stats.ExtractTime = time.Since(start) }()

	rev, err := e.Resolver.ResolveRevision(e.Revision)
	if err != nil {
		return nil, err
	}
	e.stats.Revision = rev
	e.Logger.Info("downloading master", "classification_type", e.ClassificationType, "revision", rev)

	master, err := e.Master.FetchMaster(ctx, e.ClassificationType, rev)
	if err != nil {
		return nil, err
	}
	e.stats.MasterRows = len(master)
	// Reject a malformed code list before spending requests on its classes.
	if err := schema.Validate(jsic.RawContract, master); err != nil {
		return nil, err
	}

	codes := jsic.LeafCodes(master)
	if e.DebugCodeLimit > 0 && e.DebugCodeLimit < len(codes) {
		e.Logger.Info("debug code limit applied", "limit", e.DebugCodeLimit, "class_codes", len(codes))
		codes = codes[:e.DebugCodeLimit]
	}
	e.stats.ClassCodes = len(codes)
	e.Logger.Info("downloaded master",
		"rows", len(master),
		"class_codes", len(codes),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	examples, err := e.fetchExamples(ctx, codes, rev)
	if err != nil {
		return nil, err
	}
	return &Extracted{Revision: rev, Master: master, Examples: examples}, nil
}

func (e *JSICETL) fetchExamples(ctx context.Context, codes []string, rev string) ([]jsic.ExampleRecord, error) {
	start := time.Now()
	examples, misses, err := e.cachedExamples(ctx, codes, rev)
	if err != nil {
		return nil, err
	}
	e.stats.CacheHits = len(examples)

	fetcher := newTracedFetcher(e.Examples, e.Logger)
	e.Logger.Info("fetching examples",
		"class_codes", len(codes),
		"cache_hits", len(examples),
		"to_fetch", len(misses),
		"workers", e.Worker.Workers,
		"request_delay", e.Worker.RequestDelay,
		"max_retries", e.Worker.MaxRetries,
		"skip_failed", e.Worker.FailurePolicy == worker.FailurePolicySkip,
	)

	completed := 0
	results, err := worker.ProcessAllWithCallback(ctx, misses,
		func(ctx context.Context, code string) (jsic.ExampleRecord, error) {
			rec, err := fetcher.FetchExample(ctx, code, rev)
			if err != nil {
				return rec, fmt.Errorf("fetch example %s: %w", code, err)
			}
			return rec, nil
		},
		func(res worker.Result[string, jsic.ExampleRecord]) error {
			completed++
			if res.Err != nil {
				e.Logger.Warn("skipping class without example", "code", res.Input, "attempts", res.Attempts, "error", res.Err)
			}
			if completed%progressEvery == 0 {
				e.Logger.Info("example progress", "done", completed, "total", len(misses))
			}
			return nil
		},
		e.Worker,
	)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if res.Err != nil {
			e.stats.Skipped++
			continue
		}
		examples = append(examples, res.Output)
	}
	e.stats.Fetched = len(examples)
	e.Logger.Info("fetched examples",
		"fetched", len(examples),
		"cache_hits", e.stats.CacheHits,
		"skipped", e.stats.Skipped,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return examples, nil
}

// cachedExamples splits codes into records already in the cache and codes
// that still need a request.
func (e *JSICETL) cachedExamples(ctx context.Context, codes []string, rev string) ([]jsic.ExampleRecord, []string, error) {
	if e.Cache == nil {
		return make([]jsic.ExampleRecord, 0, len(codes)), codes, nil
	}
	hits := make([]jsic.ExampleRecord, 0, len(codes))
	var misses []string
	for _, code := range codes {
		rec, ok, err := e.Cache.Cached(ctx, code, rev)
		if err != nil {
			return nil, nil, fmt.Errorf("read example cache: %w", err)
		}
		if ok {
			hits = append(hits, rec)
			continue
		}
		misses = append(misses, code)
	}
	return hits, misses, nil
}

// Transform builds the validated master table.
func (e *JSICETL) Transform(_ context.Context, in *Extracted) ([]jsic.MasterRow, error) {
	start := time.Now()
	defer func() { e.stats.TransformTime = time.Since(start) }()

	rows, err := jsic.BuildMaster(in.Master, in.Examples)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		e.Logger.Warn("master table is empty; no class matched a fetched example",
			"class_codes", len(jsic.LeafCodes(in.Master)), "examples", len(in.Examples))
	}
	e.stats.OutputRows = len(rows)
	e.Logger.Info("built master table", "rows", len(rows), "duration", time.Since(start).Round(time.Millisecond))
	return rows, nil
}

// Load writes the master table to OutputPath.
func (e *JSICETL) Load(_ context.Context, rows []jsic.MasterRow) error {
	start := time.Now()
	defer func() { e.stats.LoadTime = time.Since(start) }()

	if err := local.WriteFile(e.OutputPath, e.OutputFormat, jsic.MasterColumns(), rows); err != nil {
		return err
	}
	e.Logger.Info("wrote output",
		"path", e.OutputPath,
		"format", e.OutputFormat,
		"rows", len(rows),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
