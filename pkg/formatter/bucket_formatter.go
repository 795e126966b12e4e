// File: pkg/formatter/bucket_formatter.go
package formatter

import (
	"sort"
	"strings"
	"time"

	"voltct/pkg/blob"
)

type BucketFormatter struct{}

func NewBucketFormatter() *BucketFormatter {
	return &BucketFormatter{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC1123)
}

func (f *BucketFormatter) FormatBucketDetails(bucket blob.Bucket) string {
	var sb strings.Builder

	sb.WriteString(FormatHeaderSection("Bucket: " + bucket.Name))
	sb.WriteString("\n\n")

	sb.WriteString(FormatSectionTitle("Overview"))
	sb.WriteString("\n")

	versioning := "N/A"
	if bucket.Versioning != nil {
		versioning = "Disabled"
		if bucket.Versioning.Enabled {
			versioning = "Enabled"
		}
	}

	overviewTable := NewTable([]string{"Parameter", "Value"})
	details := []struct {
		Key   string
		Value string
	}{
		{"Provider", string(bucket.Provider)},
		{"Location / Region", bucket.Location},
		{"Storage Class", bucket.StorageClass},
		{"Usage", blob.FormatBytes(bucket.UsageBytes)},
		{"Versioning", versioning},
		{"Created On", formatTime(bucket.CreatedAt)},
		{"Updated On", formatTime(bucket.UpdatedAt)},
	}
	for _, detail := range details {
		overviewTable.AddRow([]string{detail.Key, detail.Value})
	}

	sb.WriteString(overviewTable.String())
	sb.WriteString("\n")

	if len(bucket.Labels) > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatSectionTitle("Labels"))
		sb.WriteString("\n")

		keys := make([]string, 0, len(bucket.Labels))
		for k := range bucket.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		labelsTable := NewTable([]string{"Key", "Value"})
		for _, k := range keys {
			labelsTable.AddRow([]string{k, bucket.Labels[k]})
		}
		sb.WriteString(labelsTable.String())
		sb.WriteString("\n")
	}

	if len(bucket.Warnings) > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatSectionTitle("Warnings"))
		sb.WriteString("\n")
		for _, w := range bucket.Warnings {
			sb.WriteString("  ! " + w + "\n")
		}
	}

	return sb.String()
}
