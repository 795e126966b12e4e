// File: internal/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"voltct/internal/errs"
)

const (
	// Points at a service-account key file (application default credentials convention)
	ServiceAccountEnv = "GOOGLE_APPLICATION_CREDENTIALS"
	// Points at an OAuth client secrets file for the interactive consent flow
	ClientSecretsEnv = "GOOGLE_CLIENT_SECRETS"
)

// Mode is the authentication convention selected for an invocation
type Mode int

const (
	ModeServiceAccount Mode = iota + 1
	ModeOAuthClient
)

func (m Mode) String() string {
	switch m {
	case ModeServiceAccount:
		return "service-account"
	case ModeOAuthClient:
		return "oauth-client"
	default:
		return "unknown"
	}
}

// Settings carries everything the resolver needs. It is built once at startup and passed explicitly
type Settings struct {
	ServiceAccountFile string
	ClientSecretsFile  string
	TokenCachePath     string
	Scopes             []string
}

// Builds Settings from the credential environment variables plus the configured token cache and scopes
func SettingsFromEnv(lookup func(string) (string, bool), tokenCachePath string, scopes []string) Settings {
	get := func(name string) string {
		if v, ok := lookup(name); ok {
			return v
		}
		return ""
	}
	return Settings{
		ServiceAccountFile: get(ServiceAccountEnv),
		ClientSecretsFile:  get(ClientSecretsEnv),
		TokenCachePath:     tokenCachePath,
		Scopes:             scopes,
	}
}

// Selects the authentication mode. The service-account variable wins when both are set
func ModeFor(s Settings) (Mode, error) {
	switch {
	case s.ServiceAccountFile != "":
		return ModeServiceAccount, nil
	case s.ClientSecretsFile != "":
		return ModeOAuthClient, nil
	default:
		return 0, errs.Configurationf("select credentials", "neither %s nor %s is set", ServiceAccountEnv, ClientSecretsEnv)
	}
}

// Identity is an authenticated principal usable by the cloud clients
type Identity struct {
	Mode            Mode
	ProjectID       string
	Email           string
	CredentialsFile string
	TokenSource     oauth2.TokenSource
}

// Returns the client option that authenticates SDK clients as this identity
func (id *Identity) ClientOption() option.ClientOption {
	return option.WithTokenSource(id.TokenSource)
}

// Resolver turns Settings into an Identity, driving the OAuth consent flow when needed
type Resolver struct {
	codes  CodeSource
	logger *slog.Logger
}

func NewResolver(codes CodeSource, logger *slog.Logger) *Resolver {
	return &Resolver{
		codes:  codes,
		logger: logger.With("component", "auth"),
	}
}

// Resolves the identity for the selected mode
func (r *Resolver) Resolve(ctx context.Context, s Settings) (*Identity, error) {
	mode, err := ModeFor(s)
	if err != nil {
		return nil, err
	}

	if s.ServiceAccountFile != "" && s.ClientSecretsFile != "" {
		r.logger.Warn("Both credential variables are set, using the service account", "service_account_env", ServiceAccountEnv, "client_secrets_env", ClientSecretsEnv)
	}

	switch mode {
	case ModeServiceAccount:
		return r.resolveServiceAccount(ctx, s)
	case ModeOAuthClient:
		return r.resolveOAuth(ctx, s, false)
	default:
		return nil, fmt.Errorf("unsupported authentication mode %v", mode)
	}
}

// Runs the interactive OAuth flow even when a cached token exists and stores the new token
func (r *Resolver) Login(ctx context.Context, s Settings) (*Identity, error) {
	if s.ClientSecretsFile == "" {
		return nil, errs.Configurationf("login", "%s is not set; service-account credentials need no login", ClientSecretsEnv)
	}
	return r.resolveOAuth(ctx, s, true)
}

// StatusReport describes the credential setup without contacting any service
type StatusReport struct {
	Mode            Mode
	CredentialsFile string
	TokenCachePath  string
	TokenCached     bool
}

func Status(s Settings) (StatusReport, error) {
	mode, err := ModeFor(s)
	if err != nil {
		return StatusReport{}, err
	}

	report := StatusReport{Mode: mode, TokenCachePath: s.TokenCachePath}
	switch mode {
	case ModeServiceAccount:
		report.CredentialsFile = s.ServiceAccountFile
	case ModeOAuthClient:
		report.CredentialsFile = s.ClientSecretsFile
		report.TokenCached = NewTokenCache(s.TokenCachePath).Exists()
	}
	return report, nil
}

// Removes the cached OAuth token. Returns false when there was nothing to remove
func Logout(s Settings) (bool, error) {
	return NewTokenCache(s.TokenCachePath).Remove()
}

// Reads a credential file named by envName, reporting missing or unreadable files as configuration errors
func readCredentialFile(path, envName string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Configurationf("read credentials", "%s points to %s, which does not exist", envName, path)
		}
		return nil, errs.Configurationf("read credentials", "%s points to %s, which cannot be read: %w", envName, path, err)
	}
	return data, nil
}
