package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage serves read-only artifacts from a directory.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./artifacts"
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("stat artifact dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact path %q is not a directory", basePath)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

func (s *Storage) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimSpace(key)))
	if cleaned == "." || filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.basePath, cleaned), nil
}
