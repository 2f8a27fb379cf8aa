// Package docs is the document-storage collaborator: it accepts a file and
// hands back a URL plus a storage id. Provider behavior is out of scope; the
// default keeps files on local disk.
package docs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage stores one uploaded deed document.
type Storage interface {
	Store(ctx context.Context, filename string, r io.Reader) (url, id string, err error)
}

// FSStorage writes documents under a base directory and serves them by id.
type FSStorage struct {
	baseDir string
}

func NewFSStorage(baseDir string) (*FSStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &FSStorage{baseDir: baseDir}, nil
}

func (s *FSStorage) Store(_ context.Context, filename string, r io.Reader) (string, string, error) {
	id := uuid.NewString()
	ext := filepath.Ext(filename)
	path := filepath.Join(s.baseDir, id+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create document file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("write document file: %w", err)
	}
	return "/documents/" + id + ext, id, nil
}
