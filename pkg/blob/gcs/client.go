// File: pkg/blob/gcs/client.go
package gcs

import (
	"context"
	"fmt"
	"log/slog"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"voltct/internal/provider/registry"
	"voltct/pkg/blob"
	"voltct/pkg/common"
)

func init() {
	registry.RegisterProvider(common.SchemeGCS, registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
		ConfigHint:  "Set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CLIENT_SECRETS and a project ('voltct config set gcp.project <project-id>')",
	})
}

// Cloud Storage needs a resolved Google identity and a project for the usage metrics
func isConfigured(env registry.Env) bool {
	return len(env.ClientOptions) > 0 && env.ProjectID != ""
}

func initialize(ctx context.Context, env registry.Env) (blob.Store, error) {
	if !isConfigured(env) {
		return nil, fmt.Errorf("GCS configuration missing or incomplete")
	}
	return NewGCSStore(ctx, env.ProjectID, env.Logger, env.ClientOptions...)
}

type GCSStore struct {
	client    *gcpstorage.Client
	projectID string
	opts      []option.ClientOption
	logger    *slog.Logger
}

var _ blob.Store = (*GCSStore)(nil)

func NewGCSStore(ctx context.Context, projectID string, logger *slog.Logger, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := gcpstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		client:    client,
		projectID: projectID,
		opts:      opts,
		logger:    logger,
	}, nil
}

func (g *GCSStore) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
