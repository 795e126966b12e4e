// File: pkg/common/provider.go
package common

// Provider identifies the cloud behind a blob store in listings and bucket details
type Provider string

const (
	GCP Provider = "GCP"
	AWS Provider = "AWS"
)

// URL schemes of the blob locations each provider serves
const (
	SchemeGCS = "gs"
	SchemeS3  = "s3"
)
