package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements the ObjectStore interface using the local
// filesystem. Objects become public through the server's /files/ route,
// so the public URL is baseURL + /files/ + name.
type LocalStore struct {
	basePath string
	baseURL  string
}

// NewLocalStore creates a LocalStore rooted at basePath. baseURL is the
// externally reachable address of the server, e.g. http://localhost:8080.
func NewLocalStore(basePath, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStore{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put writes the blob and a sidecar file recording its content type.
func (l *LocalStore) Put(ctx context.Context, name, contentType string, data []byte) error {
	path := filepath.Join(l.basePath, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if err := os.WriteFile(path+".type", []byte(contentType), 0644); err != nil {
		return fmt.Errorf("writing content type: %w", err)
	}
	return nil
}

// Publish returns the public URL for a stored object. Local files are
// public as soon as they exist, so this only checks presence.
func (l *LocalStore) Publish(ctx context.Context, name string) (string, error) {
	name = filepath.Base(name)
	if _, err := os.Stat(filepath.Join(l.basePath, name)); err != nil {
		return "", fmt.Errorf("publishing file: %w", err)
	}
	return fmt.Sprintf("%s/files/%s", l.baseURL, url.PathEscape(name)), nil
}

// Get retrieves a stored blob and its recorded content type.
func (l *LocalStore) Get(ctx context.Context, name string) ([]byte, string, error) {
	path := filepath.Join(l.basePath, filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}

	contentType := "application/octet-stream"
	if ct, err := os.ReadFile(path + ".type"); err == nil {
		contentType = string(ct)
	}
	return data, contentType, nil
}

// Delete removes a stored object and its content-type sidecar.
func (l *LocalStore) Delete(ctx context.Context, name string) error {
	path := filepath.Join(l.basePath, filepath.Base(name))
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	os.Remove(path + ".type")
	return nil
}
