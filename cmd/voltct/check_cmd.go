// File: cmd/voltct/check_cmd.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voltct/internal/flags"
)

func newCheckCmd() *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify credentials and access to Datastore and Cloud Storage",
		Long: `Resolves credentials, runs a minimal Datastore query and describes the results bucket,
including its usage from Cloud Monitoring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			svc, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}

			report, err := svc.Check(cmd.Context(), app.projectID(), bucket)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project: %s\n", report.ProjectID)
			fmt.Fprintf(out, "Datastore namespace '%s': OK\n", app.Config.Datastore.Namespace)
			fmt.Fprintf(out, "Blob schemes: %s\n\n", strings.Join(report.Schemes, ", "))
			fmt.Fprintln(out, app.BucketFormatter.FormatBucketDetails(report.Bucket))
			return nil
		},
	}
	cmd.Flags().StringVarP(&bucket, flags.Bucket, flags.BucketShort, "", "Bucket to describe (default results.bucket)")
	return cmd
}
