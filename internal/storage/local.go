package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Store persists generated document artifacts (estimates, contracts,
// invoices, receipts) and serves them back for download.
type Store interface {
	Put(ctx context.Context, name string, content []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// LocalStore implements Store on the local filesystem
type LocalStore struct {
	basePath string
	logger   *logrus.Logger
}

// NewLocalStore creates a new local filesystem store
func NewLocalStore(basePath string, logger *logrus.Logger) (*LocalStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path is required for local store")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}
	return &LocalStore{basePath: basePath, logger: logger}, nil
}

// fullPath resolves an artifact name under the base path. Names containing
// path traversal are rejected.
func (s *LocalStore) fullPath(name string) (string, error) {
	clean := filepath.Clean(name)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid artifact name: %s", name)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Put writes an artifact
func (s *LocalStore) Put(ctx context.Context, name string, content []byte) error {
	path, err := s.fullPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	s.logger.WithField("artifact", name).Debug("artifact written")
	return nil
}

// Get reads an artifact
func (s *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	path, err := s.fullPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact not found: %s", name)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// Exists reports whether an artifact is present
func (s *LocalStore) Exists(ctx context.Context, name string) (bool, error) {
	path, err := s.fullPath(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat artifact: %w", err)
	}
	return true, nil
}
