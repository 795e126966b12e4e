// File: pkg/blob/gcs/buckets.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voltct/pkg/blob"
	"voltct/pkg/common"
)

func (g *GCSStore) DescribeBucket(ctx context.Context, bucketName string) (blob.Bucket, error) {
	g.logger.Debug("Starting GCS DescribeBucket operation", "bucket", bucketName)

	attrs, err := g.client.Bucket(bucketName).Attrs(ctx)
	if err != nil {
		return blob.Bucket{}, fmt.Errorf("error getting bucket attributes: %w", err)
	}

	details := blob.Bucket{
		Name:         attrs.Name,
		Provider:     common.GCP,
		Location:     attrs.Location,
		StorageClass: attrs.StorageClass,
		CreatedAt:    attrs.Created,
		UpdatedAt:    attrs.Updated,
		UsageBytes:   -1,
		Labels:       attrs.Labels,
		Versioning:   &blob.Versioning{Enabled: attrs.VersioningEnabled},
	}

	usage, err := g.getSingleBucketUsage(ctx, bucketName)
	if err != nil {
		logLevel := slog.LevelWarn
		logMsg := "Failed to retrieve usage metrics due to API error, usage will be reported as N/A"

		if errors.Is(err, ErrMetricsNotFound) {
			logLevel = slog.LevelInfo
			logMsg = "Usage metrics not yet available (bucket may be new), usage will be reported as N/A"
		} else {
			details.Warnings = append(details.Warnings, "usage metrics unavailable: requires monitoring.timeSeries.list")
		}

		g.logger.Log(ctx, logLevel, logMsg, "bucket", bucketName, "error", err)
		return details, nil
	}

	details.UsageBytes = usage
	return details, nil
}
