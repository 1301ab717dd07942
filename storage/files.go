package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists uploaded files on the local filesystem and serves them
// back by relative path.
type FileStore struct {
	root string
}

// NewFileStore ensures the upload directory exists. Defaults to ./uploads.
func NewFileStore() (*FileStore, error) {
	root := os.Getenv("UPLOAD_DIR")
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &FileStore{root: abs}, nil
}

// Save writes data under the given relative path and returns the stored
// relative path.
func (fs *FileStore) Save(relPath string, data []byte) (string, error) {
	full, err := fs.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return relPath, nil
}

// Read returns the file contents for a relative path.
func (fs *FileStore) Read(relPath string) ([]byte, error) {
	full, err := fs.resolve(relPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Path resolves a relative path to an absolute one inside the store.
func (fs *FileStore) Path(relPath string) (string, error) {
	return fs.resolve(relPath)
}

// resolve joins and verifies the path stays inside the root, rejecting
// traversal attempts like "../".
func (fs *FileStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean("/" + relPath) // forces the path to be rooted
	full := filepath.Join(fs.root, cleaned)
	if full != fs.root && !strings.HasPrefix(full, fs.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid file path: %s", relPath)
	}
	return full, nil
}
