package runstore

import (
	"testing"

	"cloud.google.com/go/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltct/pkg/ctrun"
)

func TestTaskEntityLoadIgnoresUnknownProperties(t *testing.T) {
	var e taskEntity
	err := e.Load([]datastore.Property{
		{Name: "GroupName", Value: "volt10k-m80"},
		{Name: "TsCompleted", Value: int64(20200415103000)},
		{Name: "RawOutput", Value: "https://ct.skia.org/results/out.csv"},
		{Name: "Username", Value: "someone@example.com"},
		{Name: "BenchmarkArgs", Value: "--pageset-repeat=1"},
	})
	require.NoError(t, err)

	run := e.toRun(datastore.IDKey("ChromiumAnalysisTasks", 4242, nil))
	assert.Equal(t, ctrun.Run{
		ID:          "4242",
		GroupName:   "volt10k-m80",
		TsCompleted: 20200415103000,
		RawOutput:   "https://ct.skia.org/results/out.csv",
	}, run)

	assert.Equal(t, "named", keyID(datastore.NameKey("ChromiumAnalysisTasks", "named", nil)))
	assert.Empty(t, keyID(nil))
}

func TestTaskEntityLoadRejectsBadTimestamp(t *testing.T) {
	var e taskEntity
	err := e.Load([]datastore.Property{{Name: "TsCompleted", Value: []byte("x")}})
	assert.Error(t, err)

	require.NoError(t, e.Load([]datastore.Property{{Name: "TsCompleted", Value: "20200101000000"}}))
	assert.Equal(t, int64(20200101000000), e.TsCompleted)
}

func TestTaskEntitySave(t *testing.T) {
	e := taskEntity{GroupName: "g", TsCompleted: 1, RawOutput: "r"}
	props, err := e.Save()
	require.NoError(t, err)

	var loaded taskEntity
	require.NoError(t, loaded.Load(props))
	assert.Equal(t, e, loaded)
}
