package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// mediaExtensions is the fixed allow-list used by the fallback scan.
var mediaExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".m4a":  true,
	".mp3":  true,
	".opus": true,
	".ogg":  true,
	".wav":  true,
	".avi":  true,
	".mov":  true,
	".flv":  true,
	".m4v":  true,
}

// ArtifactLocator finds the file a download actually produced. The engine's
// reported name is only a hint; post-processing can rename the output after
// the final progress callback fires.
type ArtifactLocator struct {
	logger *zap.Logger
}

// NewArtifactLocator creates a new artifact locator
func NewArtifactLocator(logger *zap.Logger) *ArtifactLocator {
	return &ArtifactLocator{logger: logger}
}

// Locate resolves the produced artifact inside workDir. Reported-name-first;
// then the most recent media-extension file in the directory; then the most
// recent file of any kind. The scan is single-level and deterministic.
func (l *ArtifactLocator) Locate(workDir, reportedName string) (string, error) {
	if reportedName != "" {
		candidate := reportedName
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(workDir, reportedName)
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		l.logger.Debug("Reported artifact name not found on disk, scanning",
			zap.String("reported", reportedName),
			zap.String("dir", workDir))
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		return "", fmt.Errorf("failed to read working directory: %w", err)
	}

	var newestMedia, newestAny string
	var newestMediaTime, newestAnyTime int64

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime().UnixNano()
		path := filepath.Join(workDir, entry.Name())

		if mod > newestAnyTime || newestAny == "" {
			newestAny = path
			newestAnyTime = mod
		}
		if mediaExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			if mod > newestMediaTime || newestMedia == "" {
				newestMedia = path
				newestMediaTime = mod
			}
		}
	}

	if newestMedia != "" {
		return newestMedia, nil
	}
	if newestAny != "" {
		l.logger.Warn("No media-extension file found, falling back to newest file",
			zap.String("dir", workDir),
			zap.String("file", newestAny))
		return newestAny, nil
	}
	return "", fmt.Errorf("no artifact produced in %s", workDir)
}
