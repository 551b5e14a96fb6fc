package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/internal/domain"
)

// Notifier receives desktop notifications for download lifecycle events.
type Notifier interface {
	NotifyDownloadStarted(url string)
	NotifyDownloadCompleted(title, path string)
	NotifyDownloadFailed(url string, kind domain.ErrorKind, message string)
}

// PreflightFunc verifies external tooling before any orchestration starts.
type PreflightFunc func() error

// DownloadManager runs one download job end to end: preflight, resolve,
// select, execute, locate, relocate, cleanup. Jobs are serialized through a
// single-slot semaphore; queue goroutines may pile up behind it.
type DownloadManager struct {
	repo      domain.DownloadRepository
	executor  *DownloadExecutor
	resolver  *URLResolver
	selector  *FormatSelector
	storage   *StorageManager
	locator   *ArtifactLocator
	hub       *ProgressHub
	notifier  Notifier
	preflight PreflightFunc
	config    *domain.DownloadConfig
	logger    *zap.Logger
	sem       chan struct{}
	mu        sync.Mutex
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	repo domain.DownloadRepository,
	executor *DownloadExecutor,
	resolver *URLResolver,
	selector *FormatSelector,
	storage *StorageManager,
	locator *ArtifactLocator,
	hub *ProgressHub,
	notifier Notifier,
	preflight PreflightFunc,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *DownloadManager {
	return &DownloadManager{
		repo:      repo,
		executor:  executor,
		resolver:  resolver,
		selector:  selector,
		storage:   storage,
		locator:   locator,
		hub:       hub,
		notifier:  notifier,
		preflight: preflight,
		config:    config,
		logger:    logger,
		sem:       make(chan struct{}, 1),
	}
}

// ProcessDownload processes a single download job
func (dm *DownloadManager) ProcessDownload(ctx context.Context, download *domain.Download) error {
	select {
	case dm.sem <- struct{}{}:
		defer func() { <-dm.sem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	// The job may have been cancelled while waiting for the semaphore.
	current, err := dm.repo.FindByID(download.ID)
	if err != nil {
		return fmt.Errorf("download not found: %w", err)
	}
	if !current.IsPending() {
		dm.logger.Info("Skipping download no longer queued",
			zap.String("id", download.ID),
			zap.String("status", string(current.Status)))
		return nil
	}

	dm.logger.Info("Processing download",
		zap.String("id", download.ID),
		zap.String("url", download.URL),
		zap.String("kind", string(download.Kind)))

	download.MarkProcessing()
	if err := dm.repo.Update(download); err != nil {
		return fmt.Errorf("failed to update download status: %w", err)
	}

	if dm.notifier != nil {
		dm.notifier.NotifyDownloadStarted(download.URL)
	}

	result := dm.run(ctx, download)

	if result.Success {
		download.MarkCompleted(result.ArtifactPath, result.Title, result.SizeBytes)
		if err := dm.repo.Update(download); err != nil {
			dm.logger.Error("Failed to update download status", zap.Error(err))
		}
		dm.logger.Info("Download completed",
			zap.String("id", download.ID),
			zap.String("title", result.Title),
			zap.String("file", result.ArtifactPath),
			zap.Int64("size_bytes", result.SizeBytes))
		if dm.notifier != nil {
			dm.notifier.NotifyDownloadCompleted(result.Title, result.ArtifactPath)
		}
		return nil
	}

	download.MarkFailed(result.ErrorKind, result.Message)
	if err := dm.repo.Update(download); err != nil {
		dm.logger.Error("Failed to update download status", zap.Error(err))
	}
	dm.logger.Error("Download failed",
		zap.String("id", download.ID),
		zap.String("url", download.URL),
		zap.String("error_kind", string(result.ErrorKind)),
		zap.String("message", result.Message))
	if dm.notifier != nil {
		dm.notifier.NotifyDownloadFailed(download.URL, result.ErrorKind, result.Message)
	}
	return fmt.Errorf("%s: %s", result.ErrorKind, result.Message)
}

// run executes the pipeline and always releases the working directory,
// whatever the outcome.
func (dm *DownloadManager) run(ctx context.Context, download *domain.Download) domain.Result {
	if dm.preflight != nil {
		if err := dm.preflight(); err != nil {
			return domain.Result{
				ErrorKind: domain.ErrPreconditionMissing,
				Message:   err.Error(),
			}
		}
	}

	req := download.Request()
	if err := req.Validate(); err != nil {
		return domain.Result{
			ErrorKind: domain.ErrURLUnresolvable,
			Message:   err.Error(),
		}
	}

	target, err := dm.resolver.Resolve(req.URL)
	if err != nil {
		return domain.Result{
			ErrorKind: domain.ErrURLUnresolvable,
			Message:   err.Error(),
		}
	}

	spec := dm.selector.Select(req.Kind, req.QualityCeiling)

	workDir, err := dm.storage.Acquire(req.Destination)
	if err != nil {
		return domain.Result{
			ErrorKind: domain.ErrDownloadFailed,
			Message:   fmt.Sprintf("working directory unavailable: %v", err),
		}
	}
	defer dm.storage.Release(workDir)

	onEvent := func(event domain.ProgressEvent) {
		dm.hub.Publish(download.ID, event)
	}

	result := dm.executor.Execute(ctx, req, target, spec, workDir, onEvent)
	if !result.Success {
		return result
	}

	artifact, err := dm.locator.Locate(workDir.Path, result.ArtifactPath)
	if err != nil {
		return domain.Result{
			ErrorKind: domain.ErrArtifactNotFound,
			Message:   fmt.Sprintf("download reported success but produced no artifact: %v", err),
		}
	}

	// A temporary working directory is about to be deleted; the artifact has
	// to leave it first. Custom destinations keep the file where it landed.
	if !workDir.IsCustom {
		moved, err := dm.storage.MoveArtifact(artifact, dm.config.BaseDir)
		if err != nil {
			return domain.Result{
				ErrorKind: domain.ErrArtifactNotFound,
				Message:   fmt.Sprintf("failed to move artifact to output directory: %v", err),
			}
		}
		artifact = moved
	}

	result.ArtifactPath = artifact
	if info, err := os.Stat(artifact); err == nil {
		result.SizeBytes = info.Size()
	}
	return result
}

// CancelDownload cancels a queued download. A job already handed to the
// engine runs to completion.
func (dm *DownloadManager) CancelDownload(id string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	download, err := dm.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("download not found: %w", err)
	}

	switch download.Status {
	case domain.StatusProcessing:
		return fmt.Errorf("download is currently processing and cannot be cancelled")
	case domain.StatusCompleted, domain.StatusCancelled, domain.StatusFailed:
		return fmt.Errorf("download already in terminal state: %s", download.Status)
	}

	download.MarkCancelled()
	if err := dm.repo.Update(download); err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}

	dm.logger.Info("Download cancelled", zap.String("id", id))
	return nil
}

// RetryDownload requeues a failed or cancelled download
func (dm *DownloadManager) RetryDownload(id string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	download, err := dm.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("download not found: %w", err)
	}

	if download.Status != domain.StatusFailed && download.Status != domain.StatusCancelled {
		return fmt.Errorf("download is not retryable from state: %s", download.Status)
	}

	download.ResetForRetry()
	if err := dm.repo.Update(download); err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}

	dm.logger.Info("Download queued for retry", zap.String("id", id))
	return nil
}
