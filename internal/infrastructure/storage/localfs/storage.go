package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

// PhotoArchive keeps nameplate photos as files below basePath, one directory per request.
type PhotoArchive struct {
	basePath string
}

func New(basePath string) (*PhotoArchive, error) {
	if basePath == "" {
		basePath = "./data/photos"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &PhotoArchive{basePath: basePath}, nil
}

// SavePhoto writes the image atomically; an existing photo under the same key is replaced.
func (s *PhotoArchive) SavePhoto(ctx context.Context, key string, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create photo dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(image); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func (s *PhotoArchive) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimSpace(key)))
	if cleaned == "." || filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve photo key", fmt.Errorf("key %q", key))
	}
	return filepath.Join(s.basePath, cleaned), nil
}
