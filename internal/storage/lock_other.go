//go:build !unix

package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// lockFile only ensures the parent directory exists; advisory locking is
// not available on this platform.
func lockFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	return func() {}, nil
}
