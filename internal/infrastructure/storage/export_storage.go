package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/application/port"
)

// LocalExportStorage implements port.ExportStorage for the local filesystem
type LocalExportStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalExportStorage creates a new LocalExportStorage rooted at baseDir
func NewLocalExportStorage(baseDir string, logger *zap.Logger) *LocalExportStorage {
	return &LocalExportStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

var _ port.ExportStorage = (*LocalExportStorage)(nil)

// SaveExport writes content to name, relative to the base directory.
// Existing files are overwritten.
func (s *LocalExportStorage) SaveExport(ctx context.Context, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("cannot save export: empty name")
	}

	fullPath := s.GetFullPath(name)
	if err := s.ValidatePath(fullPath); err != nil {
		return "", err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	// Write to a sibling temp file first so readers never see a partial PDF
	tmp, err := os.CreateTemp(parentDir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		s.logger.Error("Failed to write export", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		s.logger.Error("Failed to move export into place", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Export saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// GetFullPath returns the full path for a relative export name
func (s *LocalExportStorage) GetFullPath(name string) string {
	return filepath.Join(s.baseDir, name)
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalExportStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	// Require base + separator so /out_evil is not accepted for /out
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}
