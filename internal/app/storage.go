package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/internal/domain"
)

// StorageManager owns working-directory placement for the lifetime of one
// request. Non-custom directories are temporary and removed with their
// contents when released; custom directories are never touched.
type StorageManager struct {
	config *domain.StorageConfig
	logger *zap.Logger
}

// NewStorageManager creates a new storage manager
func NewStorageManager(config *domain.StorageConfig, logger *zap.Logger) *StorageManager {
	return &StorageManager{config: config, logger: logger}
}

// Acquire selects the working directory for a request. Cloud mode forces a
// fresh directory under the shared temp root regardless of any requested
// destination, so deployments with ephemeral disks stay on writable storage.
func (sm *StorageManager) Acquire(destination string) (domain.WorkingDirectory, error) {
	if sm.config.CloudMode {
		root := sm.config.TempRoot
		if root == "" {
			root = os.TempDir()
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			return domain.WorkingDirectory{}, fmt.Errorf("failed to create temp root: %w", err)
		}
		dir, err := os.MkdirTemp(root, "ytgrab-")
		if err != nil {
			return domain.WorkingDirectory{}, fmt.Errorf("failed to create working directory: %w", err)
		}
		return domain.WorkingDirectory{Path: dir}, nil
	}

	if destination != "" {
		err := os.MkdirAll(destination, 0755)
		if err == nil {
			err = probeWritable(destination)
		}
		if err == nil {
			return domain.WorkingDirectory{Path: destination, IsCustom: true}, nil
		}
		// An unusable destination downgrades to a temporary directory; the
		// artifact then lands in the configured base directory instead.
		sm.logger.Warn("Requested destination not usable, falling back to temporary storage",
			zap.String("destination", destination),
			zap.Error(err))
	}

	dir, err := os.MkdirTemp("", "ytgrab-")
	if err != nil {
		return domain.WorkingDirectory{}, fmt.Errorf("failed to create working directory: %w", err)
	}
	return domain.WorkingDirectory{Path: dir}, nil
}

// Release cleans up after a request. Runs on every outcome, success or
// failure, so partial downloads never accumulate.
func (sm *StorageManager) Release(wd domain.WorkingDirectory) {
	if wd.IsCustom || wd.Path == "" {
		return
	}
	if err := os.RemoveAll(wd.Path); err != nil {
		sm.logger.Warn("Failed to remove working directory",
			zap.String("dir", wd.Path),
			zap.Error(err))
	}
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".ytgrab-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// MoveArtifact relocates a finished artifact out of a temporary working
// directory into the permanent output directory, creating it if needed.
// Falls back to copy+remove when rename crosses filesystems.
func (sm *StorageManager) MoveArtifact(artifactPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	target := filepath.Join(outputDir, filepath.Base(artifactPath))

	if err := os.Rename(artifactPath, target); err == nil {
		return target, nil
	}

	src, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create target: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize target: %w", err)
	}
	if err := os.Remove(artifactPath); err != nil {
		sm.logger.Warn("Failed to remove moved artifact source",
			zap.String("path", artifactPath),
			zap.Error(err))
	}
	return target, nil
}
