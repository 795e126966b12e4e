package clients

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltct/internal/auth"
	"voltct/internal/config"
	"voltct/internal/errs"
)

func envWith(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestResolveProject(t *testing.T) {
	id := &auth.Identity{ProjectID: "from-credentials"}
	env := envWith(map[string]string{ProjectEnv: "from-env"})

	tests := []struct {
		name       string
		configured string
		id         *auth.Identity
		env        func(string) (string, bool)
		want       string
	}{
		{"config wins", "from-config", id, env, "from-config"},
		{"identity next", "", id, env, "from-credentials"},
		{"environment last", "", &auth.Identity{}, env, "from-env"},
		{"nil identity", "", nil, env, "from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveProject(tt.configured, tt.id, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveProjectMissing(t *testing.T) {
	_, err := resolveProject("", &auth.Identity{}, envWith(map[string]string{ProjectEnv: ""}))

	var cfgErr *errs.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, errs.ExitConfiguration, errs.ExitCode(err))
}

func TestConnectWithoutProjectFailsBeforeDialing(t *testing.T) {
	f := NewFactory(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.lookupEnv = envWith(nil)

	_, err := f.Connect(context.Background(), &auth.Identity{Mode: auth.ModeServiceAccount})

	var cfgErr *errs.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestQueryFromConfig(t *testing.T) {
	cfg := &config.Config{Datastore: config.DatastoreConfig{
		Namespace:  "cluster-telemetry",
		Kind:       "ChromiumAnalysisTasks",
		GroupName:  "volt10k-m80",
		QueryLimit: 1000,
	}}

	q := QueryFromConfig(cfg)
	assert.Equal(t, "cluster-telemetry", q.Namespace)
	assert.Equal(t, "ChromiumAnalysisTasks", q.Kind)
	assert.Equal(t, "volt10k-m80", q.GroupName)
	assert.Equal(t, 1000, q.Limit)
}
