// File: cmd/voltct/root.go
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"voltct/internal/errs"
	"voltct/internal/flags"
	"voltct/internal/logger"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

type rootFlags struct {
	configPath string
	debug      bool
	plain      bool
	noBrowser  bool
}

// Builds the command tree. The returned func releases whatever the invocation connected to
func newRootCmd(s streams, lookupEnv func(string) (string, bool)) (*cobra.Command, func() error) {
	rf := rootFlags{}
	var app *appContainer

	rootCmd := &cobra.Command{
		Use:   "voltct",
		Short: "voltct collects Cluster Telemetry results of the Volt page set.",
		Long: `A CLI for Cluster Telemetry (CT) runs of the Volt 10k page set. It lists
completed runs from Datastore, downloads their CSV outputs from Cloud Storage,
merges them into one CSV and turns raw CT worker logs into per-run CSVs.

Credentials come from GOOGLE_APPLICATION_CREDENTIALS (service account) or
GOOGLE_CLIENT_SECRETS (OAuth client, interactive consent on first use).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			app, err = newApp(appOptions{
				configPath: rf.configPath,
				debug:      rf.debug,
				plain:      rf.plain,
				noBrowser:  rf.noBrowser,
				streams:    s,
				lookupEnv:  lookupEnv,
				newLogger:  logger.New,
				configOnly: isConfigCommand(cmd),
			})
			if err != nil {
				return err
			}
			cmd.SetContext(contextWithApp(cmd.Context(), app))
			return nil
		},
	}

	rootCmd.SetIn(s.In)
	rootCmd.SetOut(s.Out)
	rootCmd.SetErr(s.Err)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rf.configPath, flags.Config, "", "Configuration file (default ~/.config/voltct/config.yaml)")
	pf.BoolVarP(&rf.debug, flags.Debug, flags.DebugShort, false, "Enable debug logging")
	pf.BoolVar(&rf.noBrowser, flags.NoBrowser, false, "Paste the OAuth authorization code instead of receiving it on a local port")
	pf.BoolVar(&rf.plain, flags.Plain, false, "Use a plain line prompt instead of the terminal UI")

	rootCmd.AddCommand(
		newRunsCmd(),
		newDownloadCmd(),
		newMergeCmd(),
		newFetchCmd(),
		newCheckCmd(),
		newAuthCmd(),
		newLogsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	closeApp := func() error {
		if app == nil {
			return nil
		}
		return app.Close()
	}
	return rootCmd, closeApp
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

// Executes the command line and returns the process exit code
func run(ctx context.Context, args []string, s streams, lookupEnv func(string) (string, bool)) int {
	rootCmd, closeApp := newRootCmd(s, lookupEnv)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeApp(); closeErr != nil {
		fmt.Fprintln(s.Err, "Warning:", closeErr)
	}
	if err == nil {
		return 0
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(s.Err, "Interrupted")
		return errs.ExitGeneric
	}
	fmt.Fprintln(s.Err, "Error:", err)
	return errs.ExitCode(err)
}
