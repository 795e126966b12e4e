// File: cmd/voltct/auth_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voltct/internal/auth"
	"voltct/internal/flags"
)

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Google Cloud credentials",
		Long: `Inspect the credential setup and manage the cached OAuth token.
A service account (GOOGLE_APPLICATION_CREDENTIALS) takes precedence over an OAuth client (GOOGLE_CLIENT_SECRETS).`,
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Run the OAuth consent flow and cache the token",
		Long:  `Runs the interactive OAuth consent flow for the client in GOOGLE_CLIENT_SECRETS, even when a token is already cached.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			settings, err := app.authSettings()
			if err != nil {
				return err
			}

			if _, err := app.resolver().Login(cmd.Context(), settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in. Token cached at %s\n", settings.TokenCachePath)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which credentials would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			settings, err := app.authSettings()
			if err != nil {
				return err
			}

			report, err := auth.Status(settings)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode: %s\n", report.Mode)
			fmt.Fprintf(out, "Credentials file: %s\n", report.CredentialsFile)
			if report.Mode == auth.ModeOAuthClient {
				state := "not cached"
				if report.TokenCached {
					state = "cached"
				}
				fmt.Fprintf(out, "Token: %s (%s)\n", state, report.TokenCachePath)
			}
			return nil
		},
	}

	var force bool
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Delete the cached OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			settings, err := app.authSettings()
			if err != nil {
				return err
			}

			if !force {
				confirmed, err := app.Prompter.Confirm(
					fmt.Sprintf("This removes the cached OAuth token at %s.", settings.TokenCachePath), "logout")
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Logout cancelled.")
					return nil
				}
			}

			removed, err := auth.Logout(settings)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Cached token removed.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached token found.")
			}
			return nil
		},
	}
	logoutCmd.Flags().BoolVarP(&force, flags.Force, flags.ForceShort, false, "Skip the confirmation prompt")

	authCmd.AddCommand(loginCmd, statusCmd, logoutCmd)
	return authCmd
}
