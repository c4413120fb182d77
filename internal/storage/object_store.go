package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStore uploads binary content to a namespaced path and returns a
// public URL for it. The disk implementation below is the default; an
// S3-style backend only needs to satisfy this interface.
type ObjectStore interface {
	Upload(ctx context.Context, path string, r io.Reader) (string, error)
}

// DiskStore writes objects under a base directory and serves them from a
// public base URL (the router mounts the directory as static files).
type DiskStore struct {
	baseDir string
	baseURL string
}

// NewDiskStore constructs a DiskStore rooted at baseDir.
func NewDiskStore(baseDir, baseURL string) *DiskStore {
	return &DiskStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload stores the object and returns its public URL. A failed write
// leaves no partial object behind.
func (s *DiskStore) Upload(ctx context.Context, path string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + path)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid object path %q", path)
	}
	full := filepath.Join(s.baseDir, clean)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize object: %w", err)
	}

	return s.baseURL + strings.ReplaceAll(clean, string(filepath.Separator), "/"), nil
}
