// File: pkg/ctrun/run.go
package ctrun

import (
	"fmt"
	"strings"
)

// Run is one completed CT analysis task of the tracked page-set group
type Run struct {
	ID          string `json:"id" yaml:"id"`
	GroupName   string `json:"group_name" yaml:"group_name"`
	TsCompleted int64  `json:"ts_completed" yaml:"ts_completed"`
	RawOutput   string `json:"raw_output" yaml:"raw_output"`
}

func (r Run) CompletedDate() string {
	return CTTimeToDateString(r.TsCompleted)
}

func (r Run) HasOutput() bool {
	return strings.TrimSpace(r.RawOutput) != ""
}

// Name of the local copy of the run's CSV output
func (r Run) OutputFileName() string {
	return fmt.Sprintf("%d.csv", r.TsCompleted)
}

// Keeps runs completed at or after since. A zero since keeps everything
func FilterSince(runs []Run, since int64) []Run {
	if since == 0 {
		return runs
	}
	kept := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.TsCompleted < since {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// Maps a RawOutput URL onto its blob URL by swapping urlPrefix for blobPrefix.
// URLs outside urlPrefix are returned unchanged. Returns false for runs without output
func OutputURL(rawOutput, urlPrefix, blobPrefix string) (string, bool) {
	raw := strings.TrimSpace(rawOutput)
	if raw == "" {
		return "", false
	}
	if urlPrefix != "" && strings.HasPrefix(raw, urlPrefix) {
		return blobPrefix + strings.TrimPrefix(raw, urlPrefix), true
	}
	return raw, true
}
