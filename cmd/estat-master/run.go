package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/estat-master/estat-master/internal/app"
	"github.com/estat-master/estat-master/internal/config"
	"github.com/estat-master/estat-master/pkg/pipeline/io/local"
)

type runFlags struct {
	opts app.RunOptions

	workers        int
	requestDelay   time.Duration
	maxRetries     int
	requestTimeout time.Duration
	skipFailed     bool
	cachePath      string
	baseURL        string
}

func newRunCmd(g *globalFlags, logOut io.Writer) *cobra.Command {
	f := &runFlags{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, flatten and publish one classification revision",
		Example: `  estat-master run --data-type jsic --output-path jsic.json
  estat-master run --data-type jsic --revision 03 --output-format csv --output-path jsic_03.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg, logOut)
			if err != nil {
				return err
			}

			summary, err := app.Run(cmd.Context(), cfg, f.opts, logger)
			if err != nil {
				return runError{fmt.Errorf("run failed: %w", err)}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s (revision %s, %d skipped, run %s)\n",
				summary.OutputRows, summary.OutputPath, summary.Revision, summary.Skipped, summary.RunID)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.opts.DataType, "data-type", "", "classification to publish: "+strings.Join(app.DataTypeNames(), ", "))
	fl.StringVar(&f.opts.OutputPath, "output-path", "", "output file path")
	fl.StringVar(&f.opts.Revision, "revision", "", "revision code, e.g. 04 (default: latest configured revision)")
	fl.StringVar(&f.opts.OutputFormat, "output-format", string(local.FormatJSON), "output format: json, csv or xlsx")
	fl.IntVar(&f.opts.DebugCodeLimit, "debug-code-limit", 0, "only fetch examples for the first n classes (0: all)")
	fl.IntVar(&f.workers, "workers", def.Fetch.Workers, "concurrent example fetchers (env: ESTAT_WORKERS)")
	fl.DurationVar(&f.requestDelay, "request-delay", def.Fetch.RequestDelay, "minimum spacing between example requests across all workers (env: ESTAT_REQUEST_DELAY)")
	fl.IntVar(&f.maxRetries, "max-retries", def.Fetch.MaxRetries, "retries per example for transient failures (env: ESTAT_MAX_RETRIES)")
	fl.DurationVar(&f.requestTimeout, "request-timeout", def.EStat.ExampleTimeout, "per-request timeout for example pages (env: ESTAT_EXAMPLE_TIMEOUT)")
	fl.BoolVar(&f.skipFailed, "skip-failed-examples", false, "skip classes whose example page cannot be fetched instead of aborting (env: ESTAT_SKIP_FAILED)")
	fl.StringVar(&f.cachePath, "cache-path", "", "SQLite example cache file, disabled when empty (env: ESTAT_CACHE_PATH)")
	fl.StringVar(&f.baseURL, "base-url", "", "e-Stat base URL override (env: ESTAT_BASE_URL)")
	_ = cmd.MarkFlagRequired("data-type")
	_ = cmd.MarkFlagRequired("output-path")
	return cmd
}

// apply overrides cfg with the flags given on the command line.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("workers") {
		cfg.Fetch.Workers = f.workers
	}
	if fl.Changed("request-delay") {
		cfg.Fetch.RequestDelay = f.requestDelay
	}
	if fl.Changed("max-retries") {
		cfg.Fetch.MaxRetries = f.maxRetries
	}
	if fl.Changed("request-timeout") {
		cfg.EStat.ExampleTimeout = f.requestTimeout
	}
	if fl.Changed("skip-failed-examples") {
		cfg.Fetch.SkipFailed = f.skipFailed
	}
	if fl.Changed("cache-path") {
		cfg.Cache.Path = f.cachePath
	}
	if fl.Changed("base-url") {
		cfg.EStat.BaseURL = f.baseURL
	}
}
