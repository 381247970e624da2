package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/estat-master/estat-master/internal/estat"
)

func newRevisionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "revisions",
		Short: "List the configured revisions and their release dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			revs := estat.Revisions(cfg.Revisions)
			if err := revs.Validate(); err != nil {
				return err
			}
			latest, _ := revs.Latest()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "REVISION\tRELEASE DATE\t")
			for _, code := range revs.Codes() {
				marker := ""
				if code == latest {
					marker = "latest"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", code, revs[code], marker)
			}
			return tw.Flush()
		},
	}
}
