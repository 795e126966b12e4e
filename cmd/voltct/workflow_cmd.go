// File: cmd/voltct/workflow_cmd.go
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"voltct/internal/flags"
	"voltct/internal/service"
)

type workflowFlags struct {
	since          string
	dir            string
	mergedFilename string
}

func (f *workflowFlags) register(cmd *cobra.Command, withMerged bool) {
	cmd.Flags().StringVar(&f.since, flags.Since, "", "Min completion date of runs, in yyyy-mm-dd format")
	cmd.Flags().StringVar(&f.dir, flags.Dir, "", "Directory holding the downloaded CSV outputs (default output.csv_dir)")
	if withMerged {
		cmd.Flags().StringVar(&f.mergedFilename, flags.MergedFilename, "", "Merged output filename (default output.merged_filename)")
	}
}

// Fills unset flags from the configuration
func (f *workflowFlags) resolve(app *appContainer) (dir, merged string) {
	dir, merged = f.dir, f.mergedFilename
	if dir == "" {
		dir = app.Config.Output.CSVDir
	}
	if merged == "" {
		merged = app.Config.Output.MergedFilename
	}
	return dir, merged
}

func newDownloadCmd() *cobra.Command {
	cmdFlags := workflowFlags{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the CSV output of each run",
		Long: `Downloads the CSV output of every listed run to <dir>/<TsCompleted>.csv.
Runs without output and files that already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			dir, _ := cmdFlags.resolve(app)
			if _, err := service.ParseSince(cmdFlags.since); err != nil {
				return err
			}

			svc, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}

			runs, err := svc.ListRuns(cmd.Context(), cmdFlags.since)
			if err != nil {
				return err
			}

			report, err := svc.DownloadOutputs(cmd.Context(), runs, dir)
			printDownloadReport(cmd.OutOrStdout(), report)
			return err
		},
	}
	cmdFlags.register(cmd, false)
	return cmd
}

func newMergeCmd() *cobra.Command {
	cmdFlags := workflowFlags{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge downloaded CSV outputs into one file",
		Long: `Merges the downloaded run CSVs into one file with the columns
url, trace, run_date_str, FCP, TBT, CLS and LCP. Needs no credentials.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			dir, merged := cmdFlags.resolve(app)

			report, err := service.MergeOutputs(app.Logger, dir, merged, cmdFlags.since)
			if err != nil {
				return err
			}
			printMergeReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmdFlags.register(cmd, true)
	return cmd
}

func newFetchCmd() *cobra.Command {
	cmdFlags := workflowFlags{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "List, download and merge in one go",
		Long:  `Lists the completed runs, downloads their CSV outputs and merges them, like running download followed by merge.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			dir, merged := cmdFlags.resolve(app)
			if _, err := service.ParseSince(cmdFlags.since); err != nil {
				return err
			}

			svc, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}

			report, err := svc.Fetch(cmd.Context(), cmdFlags.since, dir, merged)
			printDownloadReport(cmd.OutOrStdout(), report.Download)
			if err != nil {
				return err
			}
			printMergeReport(cmd.OutOrStdout(), report.Merge)
			return nil
		},
	}
	cmdFlags.register(cmd, true)
	return cmd
}

func printDownloadReport(w io.Writer, report service.DownloadReport) {
	for _, ts := range report.SkippedEmpty {
		fmt.Fprintf(w, "No url found for %s | Skipping.\n", ts)
	}
	for _, path := range report.SkippedExisting {
		fmt.Fprintf(w, "%s already exists. Skipping download.\n", path)
	}
	for _, path := range report.Downloaded {
		fmt.Fprintf(w, "Downloaded csv to %s\n", path)
	}
}

func printMergeReport(w io.Writer, report service.MergeReport) {
	fmt.Fprintf(w, "Processed %d files.\n", report.Files)
	fmt.Fprintf(w, "Wrote %d rows into %s\n", report.Rows, report.Path)
}
