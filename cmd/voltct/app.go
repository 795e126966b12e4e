// File: cmd/voltct/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"voltct/internal/auth"
	"voltct/internal/clients"
	"voltct/internal/config"
	"voltct/internal/service"
	"voltct/internal/ui/authcode"
	"voltct/internal/ui/prompt"
	"voltct/pkg/formatter"
)

// streams are the process's standard streams, replaceable in tests
type streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// appContainer holds all the shared dependencies for the application.
// Cloud clients are created on first use so local commands never touch credentials
type appContainer struct {
	Config          *config.Config
	ConfigManager   *config.ConfigManager
	Logger          *slog.Logger
	Streams         streams
	Prompter        prompt.Prompter
	RunFormatter    *formatter.RunFormatter
	BucketFormatter *formatter.BucketFormatter
	LogsService     *service.LogsService

	lookupEnv func(string) (string, bool)
	plain     bool
	noBrowser bool

	clients     *clients.Clients
	runsService *service.RunsService
}

var _ service.RunSource = (*clients.Clients)(nil)

type appOptions struct {
	configPath string
	debug      bool
	plain      bool
	noBrowser  bool
	streams    streams
	lookupEnv  func(string) (string, bool)
	newLogger  func(w io.Writer, debug bool) *slog.Logger
	// Keep going with a nil Config when the file fails validation, so 'config' can repair it
	configOnly bool
}

// Creates and initializes a new application container
func newApp(opts appOptions) (*appContainer, error) {
	log := opts.newLogger(opts.streams.Err, opts.debug)

	cfgManager, err := config.NewConfigManager(opts.configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := cfgManager.LoadConfig()
	if err != nil {
		if !opts.configOnly {
			return nil, err
		}
		log.Warn("Configuration is invalid", "path", cfgManager.Path(), "error", err)
	}

	app := &appContainer{
		Config:          cfg,
		ConfigManager:   cfgManager,
		Logger:          log,
		Streams:         opts.streams,
		Prompter:        prompt.NewStandardPrompter(opts.streams.In, opts.streams.Err),
		RunFormatter:    formatter.NewRunFormatter(),
		BucketFormatter: formatter.NewBucketFormatter(),
		lookupEnv:       opts.lookupEnv,
		plain:           opts.plain,
		noBrowser:       opts.noBrowser,
	}
	if cfg != nil {
		app.LogsService = service.NewLogsService(cfg.Logs.ExecLine, log)
	}
	return app, nil
}

// Builds the resolver input from the environment and the loaded configuration
func (a *appContainer) authSettings() (auth.Settings, error) {
	tokenPath, err := a.Config.TokenCachePath()
	if err != nil {
		return auth.Settings{}, err
	}
	return auth.SettingsFromEnv(a.lookupEnv, tokenPath, a.Config.Auth.Scopes), nil
}

// Chooses how the OAuth flow obtains the authorization code
func (a *appContainer) codeSource() auth.CodeSource {
	if !a.noBrowser {
		return auth.NewLoopbackCodeSource(a.Streams.Err)
	}
	if a.plain {
		return auth.NewPasteCodeSource(func(ctx context.Context, authURL string) (string, error) {
			fmt.Fprintf(a.Streams.Err, "Open the following URL in your browser to authorize access:\n\n  %s\n\n", authURL)
			return a.Prompter.Ask("Enter the authorization code: ")
		})
	}
	return auth.NewPasteCodeSource(func(ctx context.Context, authURL string) (string, error) {
		return authcode.Prompt(ctx, a.Streams.In, a.Streams.Err, authURL)
	})
}

func (a *appContainer) resolver() *auth.Resolver {
	return auth.NewResolver(a.codeSource(), a.Logger)
}

// Resolves credentials and connects to the cloud backends, once per invocation
func (a *appContainer) connect(ctx context.Context) (*service.RunsService, error) {
	if a.runsService != nil {
		return a.runsService, nil
	}

	settings, err := a.authSettings()
	if err != nil {
		return nil, err
	}

	identity, err := a.resolver().Resolve(ctx, settings)
	if err != nil {
		return nil, err
	}

	c, err := clients.NewFactory(a.Config, a.Logger).Connect(ctx, identity)
	if err != nil {
		return nil, err
	}

	a.clients = c
	a.runsService = service.NewRunsService(c, c.Blobs, service.RunsOptionsFromConfig(a.Config), a.Logger)
	return a.runsService, nil
}

func (a *appContainer) projectID() string {
	if a.clients == nil {
		return ""
	}
	return a.clients.ProjectID
}

// Releases the cloud clients, if any were created
func (a *appContainer) Close() error {
	if a.clients == nil {
		return nil
	}
	if err := a.clients.Close(); err != nil {
		return errors.Join(errors.New("error closing cloud clients"), err)
	}
	return nil
}

type appContextKey struct{}

func contextWithApp(ctx context.Context, app *appContainer) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

func appFromContext(ctx context.Context) (*appContainer, error) {
	app, ok := ctx.Value(appContextKey{}).(*appContainer)
	if !ok || app == nil {
		return nil, errors.New("application not initialized")
	}
	return app, nil
}
