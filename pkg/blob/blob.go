// File: pkg/blob/blob.go
package blob

import (
	"context"
	"io"
)

// Store is a blob store reachable through one URL scheme
type Store interface {
	// Copies the object at loc into w and returns the number of bytes written
	Download(ctx context.Context, loc Location, w io.Writer) (int64, error)
	DescribeBucket(ctx context.Context, bucketName string) (Bucket, error)
	Close() error
}
