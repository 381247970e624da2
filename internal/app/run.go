// Package app wires configuration, fetchers, the transform and the output
// sink into one ETL run.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estat-master/estat-master/internal/cache"
	"github.com/estat-master/estat-master/internal/config"
	"github.com/estat-master/estat-master/internal/estat"
	"github.com/estat-master/estat-master/internal/jsic"
	"github.com/estat-master/estat-master/pkg/pipeline/core"
	"github.com/estat-master/estat-master/pkg/pipeline/io/local"
	"github.com/estat-master/estat-master/pkg/pipeline/worker"
)

// RunOptions are the per-invocation arguments of a run.
type RunOptions struct {
	DataType       string
	Revision       string // empty means latest
	OutputPath     string
	OutputFormat   string // json, csv or xlsx; empty means json
	DebugCodeLimit int    // 0 means no limit
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	DataType   string
	OutputPath string
	Format     local.Format
	Duration   time.Duration

	Stats
}

// Run executes one ETL run. Arguments are checked before any network call,
// and nothing is written unless every stage succeeds.
func Run(ctx context.Context, cfg *config.Config, opts RunOptions, logger *slog.Logger) (Summary, error) {
	dt, err := LookupDataType(opts.DataType)
	if err != nil {
		return Summary{}, err
	}
	rawFormat := opts.OutputFormat
	if strings.TrimSpace(rawFormat) == "" {
		rawFormat = string(local.FormatJSON)
	}
	format, err := local.ParseFormat(rawFormat)
	if err != nil {
		return Summary{}, err
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		return Summary{}, errors.New("output path is required")
	}
	if opts.DebugCodeLimit < 0 {
		return Summary{}, fmt.Errorf("debug code limit must not be negative (got %d)", opts.DebugCodeLimit)
	}

	runID := uuid.NewString()
	logger = logger.With("run", runID, "data_type", dt.Name)
	start := time.Now()

	client, err := estat.NewClient(estat.Config{
		BaseURL:        cfg.EStat.BaseURL,
		Charset:        cfg.EStat.Charset,
		MasterTimeout:  cfg.EStat.MasterTimeout,
		ExampleTimeout: cfg.EStat.ExampleTimeout,
		Revisions:      estat.Revisions(cfg.Revisions),
	})
	if err != nil {
		return Summary{}, err
	}

	var examples estat.ExampleFetcher = client.Examples(dt.ClassificationType)
	var cached CachedExamples
	if path := strings.TrimSpace(cfg.Cache.Path); path != "" {
		db, err := cache.Open(path)
		if err != nil {
			return Summary{}, fmt.Errorf("open example cache: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()
		cf := &cache.Fetcher{
			DB:                 db,
			Next:               examples,
			Source:             client.BaseURL(),
			ClassificationType: dt.ClassificationType,
			Revisions:          client.Revisions(),
		}
		examples, cached = cf, cf
		logger.Info("example cache enabled", "path", path, "source", client.BaseURL())
	}

	policy := worker.FailurePolicyFailFast
	if cfg.Fetch.SkipFailed {
		policy = worker.FailurePolicySkip
	}
	job := &JSICETL{
		ClassificationType: dt.ClassificationType,
		Revision:           opts.Revision,
		DebugCodeLimit:     opts.DebugCodeLimit,
		OutputPath:         opts.OutputPath,
		OutputFormat:       format,
		Master:             client,
		Examples:           examples,
		Resolver:           client,
		Cache:              cached,
		Worker: worker.Options{
			Workers:           cfg.Fetch.Workers,
			MaxRetries:        cfg.Fetch.MaxRetries,
			RequestTimeout:    cfg.EStat.ExampleTimeout,
			RequestDelay:      cfg.Fetch.RequestDelay,
			FailurePolicy:     policy,
			BackoffJitterFrac: 0.2,
		},
		Logger: logger,
	}

	logger.Info("run start", "revision", opts.Revision, "output", opts.OutputPath, "format", format)
	err = core.Run[*Extracted, []jsic.MasterRow](ctx, job)
	summary := Summary{
		RunID:      runID,
		DataType:   dt.Name,
		OutputPath: opts.OutputPath,
		Format:     format,
		Stats:      job.Stats(),
		Duration:   time.Since(start),
	}
	if err != nil {
		logger.Error("run failed", "error", err, "duration", summary.Duration.Round(time.Millisecond))
		return summary, err
	}
	logger.Info("run complete",
		"revision", summary.Revision,
		"rows", summary.OutputRows,
		"skipped", summary.Skipped,
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary, nil
}
