// File: pkg/blob/model.go
package blob

import (
	"fmt"
	"time"

	"voltct/pkg/common"
)

type Bucket struct {
	Name         string
	Provider     common.Provider
	Location     string
	StorageClass string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// A value of -1 indicates that the usage is unknown or could not be retrieved
	UsageBytes int64
	Labels     map[string]string
	Versioning *Versioning
	// Set when the blob store could not report every attribute
	Warnings []string
}

type Versioning struct {
	Enabled bool
}

func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "N/A"
	}
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	sizes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	if exp >= len(sizes) {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), sizes[exp])
}
