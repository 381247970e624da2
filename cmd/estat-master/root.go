package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/estat-master/estat-master/internal/config"
	"github.com/estat-master/estat-master/internal/logging"
	"github.com/estat-master/estat-master/internal/version"
	"github.com/estat-master/estat-master/pkg/pipeline/core"
	"github.com/estat-master/estat-master/pkg/pipeline/redact"
)

// Exit codes.
const (
	exitOK    = 0
	exitRun   = 1
	exitUsage = 2
)

// runError is a failure of the run itself, as opposed to bad arguments or
// configuration.
type runError struct{ err error }

func (e runError) Error() string { return e.err.Error() }
func (e runError) Unwrap() error { return e.err }

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "estat-master",
		Short: "Build classification master tables from e-Stat",
		Long: `estat-master downloads a statistical classification from e-Stat,
flattens its code hierarchy into one row per class, joins each class with
its example page and writes the result as JSON, CSV or XLSX.`,
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (defaults apply when omitted)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (env: ESTAT_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: text or json (env: ESTAT_LOG_FORMAT)")

	root.AddCommand(
		newRunCmd(g, stderr),
		newRevisionsCmd(g),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and environment, then applies the global
// flags. Validation is left to the caller, after its own flags are applied.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = g.logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return logging.Setup(cfg.Logging.Level, cfg.Logging.Format, w)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	_, _ = fmt.Fprintf(stderr, "error: %s\n", redact.Secrets(err.Error()))
	return exitCode(err)
}

// exitCode maps an error to the process exit status. Anything that is not a
// runError came from argument or configuration handling.
func exitCode(err error) int {
	var re runError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, core.ErrUnsupportedFormat):
		return exitUsage
	case errors.As(err, &re):
		return exitRun
	default:
		return exitUsage
	}
}
