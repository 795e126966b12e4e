// File: internal/flags/flags.go
package flags

// Centralized definitions for CLI flags used across the application

const (
	// Since flags bound the runs by completion date (yyyy-mm-dd)
	Since = "since"

	// Dir flags point at the local directory holding downloaded CSV outputs
	Dir = "dir"

	// MergedFilename flags name the merged CSV written by merge and fetch
	MergedFilename = "merged-filename"

	// Output flags select the rendering of listings
	Output      = "output"
	OutputShort = "o"

	// Bucket flags are used to specify the target bucket for the connectivity check
	Bucket      = "bucket"
	BucketShort = "b"

	// OutDir flags point at the directory receiving transformed log CSVs
	OutDir = "outdir"

	// Merge flags merge every transformed log into one CSV
	Merge = "merge"

	// GenerateRunIndex flags take the run index from the story number instead of the data
	GenerateRunIndex = "generate-run-index"

	// Plain flags replace the terminal UI prompt with a line prompt
	Plain = "plain"

	// NoBrowser flags switch the OAuth flow to pasting the authorization code
	NoBrowser = "no-browser"

	// Config flags override the configuration file location
	Config = "config"

	// Force flags are used to bypass interactive confirmation prompts for destructive operations
	Force      = "force"
	ForceShort = "f"

	// Debug flags are used to enable verbose logging
	Debug      = "debug"
	DebugShort = "d"
)
