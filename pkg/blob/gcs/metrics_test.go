package gcs

import (
	"testing"
	"time"

	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/stretchr/testify/assert"
)

func TestExtractUsageValue(t *testing.T) {
	tests := []struct {
		name string
		in   *monitoringpb.TypedValue
		want int64
	}{
		{"nil", nil, 0},
		{"double rounds", &monitoringpb.TypedValue{Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: 1023.6}}, 1024},
		{"int64", &monitoringpb.TypedValue{Value: &monitoringpb.TypedValue_Int64Value{Int64Value: 42}}, 42},
		{"unsupported", &monitoringpb.TypedValue{Value: &monitoringpb.TypedValue_StringValue{StringValue: "x"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUsageValue(tt.in))
		})
	}
}

func TestUsageRequest(t *testing.T) {
	end := time.Date(2020, 4, 15, 12, 0, 0, 0, time.UTC)
	req := usageRequest("skia-public", "cluster-telemetry", end)

	assert.Equal(t, "projects/skia-public", req.GetName())
	assert.Contains(t, req.GetFilter(), `resource.labels.bucket_name="cluster-telemetry"`)
	assert.Contains(t, req.GetFilter(), "storage/v2/total_bytes")
	assert.Equal(t, end, req.GetInterval().GetEndTime().AsTime())
	assert.Equal(t, end.Add(-72*time.Hour), req.GetInterval().GetStartTime().AsTime())
	assert.Equal(t, monitoringpb.Aggregation_REDUCE_SUM, req.GetAggregation().GetCrossSeriesReducer())
}
