// File: pkg/ctrun/timestamp.go
package ctrun

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// CT timestamps are yyyymmddhhmmss written as a decimal integer

var ErrInvalidDate = errors.New("date in incorrect format, use yyyy-mm-dd")

// Converts yyyy-mm-dd to the CT timestamp at midnight of that day. An empty string yields 0 (no bound)
func DateStringToCTTime(date string) (int64, error) {
	if date == "" {
		return 0, nil
	}

	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	ts, err := strconv.ParseInt(t.Format("20060102")+"000000", 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return ts, nil
}

// Renders the date part of a CT timestamp as yyyy-mm-dd
func CTTimeToDateString(ts int64) string {
	s := strconv.FormatInt(ts, 10)
	if len(s) < 8 {
		return s
	}
	return fmt.Sprintf("%s-%s-%s", s[:4], s[4:6], s[6:8])
}

// Parses a CT timestamp such as a downloaded file's base name
func ParseCTTime(s string) (int64, error) {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ts <= 0 {
		return 0, fmt.Errorf("%q is not a CT timestamp", s)
	}
	return ts, nil
}
