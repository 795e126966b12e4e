// File: internal/provider/registry/registry.go
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"google.golang.org/api/option"

	"voltct/internal/config"
	"voltct/pkg/blob"
)

// Env carries what a blob store initializer may draw on
type Env struct {
	Config *config.Config
	// Authenticate Google clients as the resolved identity
	ClientOptions []option.ClientOption
	ProjectID     string
	Logger        *slog.Logger
}

// Defines the function signature for checking if a blob provider is configured
type ProviderConfigCheck func(env Env) bool

// Defines the function signature for creating a new blob store client
type ProviderInitializer func(ctx context.Context, env Env) (blob.Store, error)

// Holds the necessary functions to check configuration and initialize a blob provider
type ProviderRegistration struct {
	ConfigCheck ProviderConfigCheck
	Initializer ProviderInitializer
	// Tells the user how to configure the provider when ConfigCheck fails
	ConfigHint string
}

var (
	// Stores the registrations, keyed by URL scheme (lowercase)
	providerRegistry = make(map[string]ProviderRegistration)
	registryMu       sync.RWMutex
)

// Allows a provider implementation package to register itself during initialization (init())
func RegisterProvider(scheme string, registration ProviderRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()

	normalized := strings.ToLower(scheme)
	if _, exists := providerRegistry[normalized]; exists {
		panic(fmt.Sprintf("blob provider for scheme %s already registered", normalized))
	}

	if registration.ConfigCheck == nil {
		panic(fmt.Sprintf("blob provider %s registration missing ConfigCheck", normalized))
	}
	if registration.Initializer == nil {
		panic(fmt.Sprintf("blob provider %s registration missing Initializer", normalized))
	}

	providerRegistry[normalized] = registration
}

// Returns a sorted list of all registered schemes
func GetSupportedSchemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	schemes := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		schemes = append(schemes, name)
	}
	sort.Strings(schemes)
	return schemes
}

func GetRegistration(scheme string) (ProviderRegistration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	registration, exists := providerRegistry[strings.ToLower(scheme)]
	return registration, exists
}

// Returns a copy of the entire registry map (primarily for use by the factory)
func GetAllRegistrations() map[string]ProviderRegistration {
	registryMu.RLock()
	defer registryMu.RUnlock()

	registrations := make(map[string]ProviderRegistration, len(providerRegistry))
	for k, v := range providerRegistry {
		registrations[k] = v
	}
	return registrations
}

// Removes a registration. Only tests use this, to register fakes under throwaway schemes
func Unregister(scheme string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(providerRegistry, strings.ToLower(scheme))
}
