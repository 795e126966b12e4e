// File: cmd/voltct/runs_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voltct/internal/errs"
	"voltct/internal/flags"
	"voltct/internal/service"
	"voltct/pkg/formatter"
)

type runsFlags struct {
	since  string
	output string
}

func newRunsCmd() *cobra.Command {
	cmdFlags := runsFlags{}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect completed CT runs",
		Long:  `The runs command reads the CT analysis tasks of the configured page-set group from Datastore.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List completed runs",
		Long: `Lists the runs of the configured group (datastore.group_name), at most datastore.query_limit of them.
Use --since to keep only runs completed on or after a date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			format, err := formatter.ParseOutputFormat(cmdFlags.output)
			if err != nil {
				return errs.Configuration("parse --output", err)
			}
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

			if len(runs) == 0 && format == formatter.FormatTable {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs found.")
				return nil
			}

			out, err := app.RunFormatter.FormatRuns(runs, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	listCmd.Flags().StringVar(&cmdFlags.since, flags.Since, "", "Min completion date of runs, in yyyy-mm-dd format")
	listCmd.Flags().StringVarP(&cmdFlags.output, flags.Output, flags.OutputShort, string(formatter.FormatTable), "Output format: table, json or yaml")

	runsCmd.AddCommand(listCmd)
	return runsCmd
}
