// File: internal/clients/clients.go
package clients

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"google.golang.org/api/option"

	"voltct/internal/auth"
	"voltct/internal/config"
	"voltct/internal/errs"
	"voltct/internal/provider/factory"
	"voltct/internal/provider/registry"
	"voltct/pkg/ctrun"
	"voltct/pkg/runstore"

	// Blob providers register their URL schemes at init
	_ "voltct/pkg/blob/gcs"
	_ "voltct/pkg/blob/s3"
)

// Environment variable consulted for the project when neither config nor credentials name one
const ProjectEnv = "GOOGLE_CLOUD_PROJECT"

// Clients are the backend handles of one CLI invocation
type Clients struct {
	ProjectID string
	Runs      *runstore.Store
	Blobs     *factory.Factory

	query runstore.Query
}

// Factory builds Clients for a resolved identity
type Factory struct {
	cfg       *config.Config
	logger    *slog.Logger
	lookupEnv func(string) (string, bool)
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:       cfg,
		logger:    logger.With("component", "clients"),
		lookupEnv: os.LookupEnv,
	}
}

// Creates the Datastore client and the blob store factory authenticated as id
func (f *Factory) Connect(ctx context.Context, id *auth.Identity) (*Clients, error) {
	projectID, err := resolveProject(f.cfg.GCP.Project, id, f.lookupEnv)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{id.ClientOption()}
	f.logger.Debug("Connecting to Google Cloud", "project", projectID, "mode", id.Mode.String())

	runs, err := runstore.NewStore(ctx, projectID, f.logger.With("service", "datastore"), opts...)
	if err != nil {
		return nil, errs.Connectivity("datastore", err)
	}

	blobs := factory.NewFactory(registry.Env{
		Config:        f.cfg,
		ClientOptions: opts,
		ProjectID:     projectID,
		Logger:        f.logger.With("service", "blob"),
	})

	return &Clients{
		ProjectID: projectID,
		Runs:      runs,
		Blobs:     blobs,
		query:     QueryFromConfig(f.cfg),
	}, nil
}

// Picks the project from config, then the identity, then the environment
func resolveProject(configured string, id *auth.Identity, lookupEnv func(string) (string, bool)) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if id != nil && id.ProjectID != "" {
		return id.ProjectID, nil
	}
	if v, ok := lookupEnv(ProjectEnv); ok && v != "" {
		return v, nil
	}
	return "", errs.Configurationf("resolve project", "no Google Cloud project found; use 'voltct config set gcp.project <project-id>' or set %s", ProjectEnv)
}

// Builds the run query described by the datastore section of the config
func QueryFromConfig(cfg *config.Config) runstore.Query {
	return runstore.Query{
		Namespace: cfg.Datastore.Namespace,
		Kind:      cfg.Datastore.Kind,
		GroupName: cfg.Datastore.GroupName,
		Limit:     cfg.Datastore.QueryLimit,
	}
}

// Lists the runs of the configured group
func (c *Clients) ListRuns(ctx context.Context) ([]ctrun.Run, error) {
	return c.Runs.ListRuns(ctx, c.query)
}

// Confirms Datastore is reachable and readable by the identity
func (c *Clients) Ping(ctx context.Context) error {
	return errs.Connectivity("datastore", c.Runs.Ping(ctx, c.query))
}

// Closes every client constructed so far
func (c *Clients) Close() error {
	var closeErrs []error
	if c.Runs != nil {
		if err := c.Runs.Close(); err != nil {
			closeErrs = append(closeErrs, err)
		}
	}
	if c.Blobs != nil {
		if err := c.Blobs.Close(); err != nil {
			closeErrs = append(closeErrs, err)
		}
	}
	return errors.Join(closeErrs...)
}
