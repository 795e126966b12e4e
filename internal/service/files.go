// File: internal/service/files.go
package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// Creates path's directory, lets write fill a temporary sibling and renames it over path on success
func writeFileAtomic(path string, write func(f *os.File) (int, error)) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("error creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := write(tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("error writing %s: %w", path, closeErr)
	}
	if err != nil {
		os.Remove(tmpName)
		return n, err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return n, fmt.Errorf("error writing %s: %w", path, err)
	}
	return n, nil
}
