// File: pkg/blob/location.go
package blob

import (
	"fmt"
	"net/url"
	"strings"
)

// Location addresses one object, e.g. gs://bucket/path/to/object.csv
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// Parses a scheme://bucket/key URL. Both bucket and key are required
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Location{}, fmt.Errorf("invalid blob URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Location{}, fmt.Errorf("invalid blob URL %q: expected scheme://bucket/key", raw)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return Location{}, fmt.Errorf("invalid blob URL %q: missing object key", raw)
	}

	return Location{
		Scheme: strings.ToLower(u.Scheme),
		Bucket: u.Host,
		Key:    key,
	}, nil
}
