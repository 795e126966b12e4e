// File: cmd/voltct/logs_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voltct/internal/flags"
)

type logsFlags struct {
	outdir           string
	merge            string
	generateRunIndex bool
}

func newLogsCmd() *cobra.Command {
	cmdFlags := logsFlags{}

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Process Cluster Telemetry worker logs",
	}

	transformCmd := &cobra.Command{
		Use:   "transform <log-file>...",
		Short: "Transform CT worker logs to per-run CSV files",
		Long: `CT worker logs hold the unaggregated result of every page run. This extracts the
timeToFirstContentfulPaint histograms and writes one row per page and run index.

Each input is written to <outdir>/<input name>.csv. With --merge all inputs go into one
file instead (--merge=<file> picks its name). The exec.go line that splits long log lines
is configured by logs.exec_line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cmdFlags.merge != "" {
				res, err := app.LogsService.TransformMerged(args, cmdFlags.merge, cmdFlags.generateRunIndex)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d rows to %s\n", res.Rows, res.Output)
				return nil
			}

			results, err := app.LogsService.Transform(args, cmdFlags.outdir, cmdFlags.generateRunIndex)
			for _, res := range results {
				fmt.Fprintf(out, "Wrote %d rows to %s\n", res.Rows, res.Output)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Transformed %d files to csv.\n", len(results))
			return nil
		},
	}
	transformCmd.Flags().StringVar(&cmdFlags.outdir, flags.OutDir, ".", "Path to output directory")
	transformCmd.Flags().StringVar(&cmdFlags.merge, flags.Merge, "", "Merge all outputs into one csv")
	transformCmd.Flags().Lookup(flags.Merge).NoOptDefVal = "merged.csv"
	transformCmd.Flags().BoolVar(&cmdFlags.generateRunIndex, flags.GenerateRunIndex, false,
		"Take the run index from the story's (#N) page number instead of storysetRepeats. Use when repeats come from listing the same URL many times")

	logsCmd.AddCommand(transformCmd)
	return logsCmd
}
