package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation(" gs://cluster-telemetry/benchmark-tasks/volt/output.csv ")
	require.NoError(t, err)
	assert.Equal(t, Location{Scheme: "gs", Bucket: "cluster-telemetry", Key: "benchmark-tasks/volt/output.csv"}, loc)
	assert.Equal(t, "gs://cluster-telemetry/benchmark-tasks/volt/output.csv", loc.String())

	loc, err = ParseLocation("S3://bucket/key.csv")
	require.NoError(t, err)
	assert.Equal(t, "s3", loc.Scheme)

	for _, bad := range []string{"", "cluster-telemetry/output.csv", "gs://bucket-only", "gs://bucket/", "gs:///key"} {
		_, err := ParseLocation(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-1, "N/A"},
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{500 * 1024 * 1024, "500.0 MB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3.0 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}
