// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ConfigFileName = "config.yaml"
	ConfigDirName  = "voltct"
	TokenFileName  = "token.json"
	EnvPrefix      = "VOLTCT"
)

const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

type GCPConfig struct {
	Project string `mapstructure:"project"`
}

// Locates the CT analysis task entities in Datastore
type DatastoreConfig struct {
	Namespace  string `mapstructure:"namespace" validate:"required"`
	Kind       string `mapstructure:"kind" validate:"required"`
	GroupName  string `mapstructure:"group_name" validate:"required"`
	QueryLimit int    `mapstructure:"query_limit" validate:"gte=1,lte=10000"`
}

// Describes how a run's RawOutput URL maps onto a blob location
type ResultsConfig struct {
	URLPrefix  string `mapstructure:"url_prefix" validate:"required,url"`
	BlobPrefix string `mapstructure:"blob_prefix" validate:"required"`
	Bucket     string `mapstructure:"bucket"`
}

type OutputConfig struct {
	CSVDir         string `mapstructure:"csv_dir" validate:"required"`
	MergedFilename string `mapstructure:"merged_filename" validate:"required"`
}

type DownloadConfig struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1,lte=32"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type AuthConfig struct {
	TokenCache string   `mapstructure:"token_cache"`
	Scopes     []string `mapstructure:"scopes" validate:"min=1,dive,required"`
}

type LogsConfig struct {
	// Line number of the exec.go call that prefixes continuation lines in CT worker logs
	ExecLine int `mapstructure:"exec_line" validate:"gte=1"`
}

type Config struct {
	GCP       GCPConfig       `mapstructure:"gcp"`
	Datastore DatastoreConfig `mapstructure:"datastore"`
	Results   ResultsConfig   `mapstructure:"results"`
	Output    OutputConfig    `mapstructure:"output"`
	Download  DownloadConfig  `mapstructure:"download"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logs      LogsConfig      `mapstructure:"logs"`
}

// Default values for every supported key. The key set doubles as the list of keys 'config set' accepts
func defaults() map[string]any {
	return map[string]any{
		"gcp.project":            "",
		"datastore.namespace":    "cluster-telemetry",
		"datastore.kind":         "ChromiumAnalysisTasks",
		"datastore.group_name":   "volt10k-m80",
		"datastore.query_limit":  1000,
		"results.url_prefix":     "https://ct.skia.org/results/",
		"results.blob_prefix":    "gs://",
		"results.bucket":         "cluster-telemetry",
		"output.csv_dir":         "csv-outputs",
		"output.merged_filename": "merged.csv",
		"download.concurrency":   1,
		"download.timeout":       10 * time.Minute,
		"aws.region":             "",
		"auth.token_cache":       "",
		"auth.scopes":            []string{CloudPlatformScope},
		"logs.exec_line":         74,
	}
}

// Returns the directory holding the config file and the OAuth token cache
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", ConfigDirName), nil
}

func defaultConfigPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Returns the configured token cache location, falling back to the default directory
func (c *Config) TokenCachePath() (string, error) {
	if c.Auth.TokenCache != "" {
		return c.Auth.TokenCache, nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TokenFileName), nil
}
