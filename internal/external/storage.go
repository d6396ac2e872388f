// Package external holds the contracts for collaborators the domain
// consumes but does not own: object storage, email, payment checkout
// and PDF rendering. Services depend on the interfaces; production
// wiring picks the implementations.
package external

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStorage stores signature images and returns a stable public
// URL for each.
type ObjectStorage interface {
	PutSignature(ctx context.Context, key string, data []byte) (string, error)
}

// FileStorage is a filesystem-backed ObjectStorage for development
// and single-host deployments.
type FileStorage struct {
	Dir     string
	BaseURL string
}

// NewFileStorage creates a FileStorage rooted at dir, serving files
// under baseURL.
func NewFileStorage(dir, baseURL string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &FileStorage{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileStorage) PutSignature(_ context.Context, key string, data []byte) (string, error) {
	path := filepath.Join(s.Dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing signature blob: %w", err)
	}
	return s.BaseURL + "/" + key, nil
}
