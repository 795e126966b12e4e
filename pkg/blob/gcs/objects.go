// File: pkg/blob/gcs/objects.go
package gcs

import (
	"context"
	"fmt"
	"io"

	"voltct/pkg/blob"
)

func (g *GCSStore) Download(ctx context.Context, loc blob.Location, w io.Writer) (int64, error) {
	g.logger.Debug("Starting GCS Download operation", "bucket", loc.Bucket, "object", loc.Key)

	reader, err := g.client.Bucket(loc.Bucket).Object(loc.Key).NewReader(ctx)
	if err != nil {
		return 0, fmt.Errorf("error opening object %s: %w", loc, err)
	}
	defer reader.Close()

	n, err := io.Copy(w, reader)
	if err != nil {
		return n, fmt.Errorf("error reading object %s: %w", loc, err)
	}
	return n, nil
}
