// File: internal/provider/factory/factory.go
package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"voltct/internal/errs"
	"voltct/internal/provider/registry"
	"voltct/pkg/blob"
)

// Factory hands out one blob store per URL scheme and keeps it for the rest of the invocation
type Factory struct {
	env    registry.Env
	logger *slog.Logger

	mu     sync.Mutex
	stores map[string]blob.Store
}

func NewFactory(env registry.Env) *Factory {
	return &Factory{
		env:    env,
		logger: env.Logger,
		stores: make(map[string]blob.Store),
	}
}

// Returns the schemes that are registered and configured
func (f *Factory) GetConfiguredSchemes() []string {
	var configured []string
	for name, registration := range registry.GetAllRegistrations() {
		if registration.ConfigCheck(f.env) {
			configured = append(configured, name)
		}
	}
	sort.Strings(configured)
	return configured
}

// Returns the store serving scheme, initializing it on first use
func (f *Factory) GetStore(ctx context.Context, scheme string) (blob.Store, error) {
	normalized := strings.ToLower(scheme)

	f.mu.Lock()
	defer f.mu.Unlock()

	if store, ok := f.stores[normalized]; ok {
		return store, nil
	}

	registration, exists := registry.GetRegistration(normalized)
	if !exists {
		return nil, fmt.Errorf("unsupported blob scheme: %s. Supported schemes are: %v", scheme, registry.GetSupportedSchemes())
	}

	if !registration.ConfigCheck(f.env) {
		return nil, errs.Configurationf("blob store", "scheme '%s' is not configured. %s", normalized, registration.ConfigHint)
	}

	env := f.env
	env.Logger = f.logger.With("provider", normalized)

	// Dynamically initialize the provider using the registered initializer function
	store, err := registration.Initializer(ctx, env)
	if err != nil {
		return nil, errs.Connectivity(normalized+" blob store", fmt.Errorf("failed to initialize provider %s: %w", normalized, err))
	}

	f.stores[normalized] = store
	return store, nil
}

// Closes every store handed out so far
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var closeErrs []error
	for scheme, store := range f.stores {
		if err := store.Close(); err != nil {
			closeErrs = append(closeErrs, fmt.Errorf("closing %s store: %w", scheme, err))
		}
		delete(f.stores, scheme)
	}
	return errors.Join(closeErrs...)
}
