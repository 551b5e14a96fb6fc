package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/internal/domain"
)

// QueueManager manages the download queue
type QueueManager struct {
	repo        domain.DownloadRepository
	downloadMgr *DownloadManager
	config      *domain.QueueConfig
	logger      *zap.Logger
	mu          sync.RWMutex
	running     bool
	inFlight    map[string]bool
	stopChan    chan struct{}
	doneChan    chan struct{}
	workerWg    sync.WaitGroup
}

// NewQueueManager creates a new queue manager
func NewQueueManager(
	repo domain.DownloadRepository,
	downloadMgr *DownloadManager,
	config *domain.QueueConfig,
	logger *zap.Logger,
) *QueueManager {
	return &QueueManager{
		repo:        repo,
		downloadMgr: downloadMgr,
		config:      config,
		logger:      logger,
		inFlight:    make(map[string]bool),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start starts the queue processor
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	qm.mu.Unlock()

	qm.logger.Info("Queue processor started",
		zap.Duration("check_interval", qm.config.CheckInterval),
		zap.Bool("auto_exit_on_empty", qm.config.AutoExitOnEmpty))

	qm.workerWg.Add(1)
	go qm.processQueue(ctx)

	return nil
}

// Stop stops the queue processor
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	qm.mu.Unlock()

	close(qm.stopChan)
	qm.workerWg.Wait()
	qm.logger.Info("Queue processor stopped")

	return nil
}

// IsRunning returns whether the queue manager is running
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// WaitForExit returns a channel closed when the queue processor exits on its
// own, such as after the auto-exit-on-empty timeout.
func (qm *QueueManager) WaitForExit() <-chan struct{} {
	return qm.doneChan
}

// AddDownload validates a request and queues a new download job
func (qm *QueueManager) AddDownload(req domain.DownloadRequest) (*domain.Download, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid download request: %w", err)
	}

	download := domain.NewDownload(req)

	if err := qm.repo.Create(download); err != nil {
		return nil, fmt.Errorf("failed to create download: %w", err)
	}

	qm.logger.Info("Download queued",
		zap.String("id", download.ID),
		zap.String("url", req.URL),
		zap.String("kind", string(req.Kind)),
		zap.Int("quality_ceiling", req.QualityCeiling))

	return download, nil
}

// GetDownload retrieves a download by ID
func (qm *QueueManager) GetDownload(id string) (*domain.Download, error) {
	return qm.repo.FindByID(id)
}

// ListDownloads lists all downloads with optional filters
func (qm *QueueManager) ListDownloads(filters map[string]interface{}) ([]*domain.Download, error) {
	return qm.repo.FindAll(filters)
}

// DeleteDownload removes a terminal download record
func (qm *QueueManager) DeleteDownload(id string) error {
	download, err := qm.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("download not found: %w", err)
	}
	if download.IsProcessing() {
		return fmt.Errorf("download is currently processing and cannot be deleted")
	}
	return qm.repo.Delete(id)
}

// GetStats returns queue statistics
func (qm *QueueManager) GetStats() (*domain.DownloadStats, error) {
	return qm.repo.GetStats()
}

// processQueue processes the download queue
func (qm *QueueManager) processQueue(ctx context.Context) {
	defer qm.workerWg.Done()
	defer close(qm.doneChan)

	ticker := time.NewTicker(qm.config.CheckInterval)
	defer ticker.Stop()

	emptyStartTime := time.Time{}

	for {
		select {
		case <-ctx.Done():
			qm.logger.Info("Queue processor stopped", zap.String("reason", "context_cancelled"))
			return
		case <-qm.stopChan:
			return
		case <-ticker.C:
			pending, err := qm.repo.FindPending()
			if err != nil {
				qm.logger.Error("Failed to fetch pending downloads", zap.Error(err))
				continue
			}

			if len(pending) == 0 {
				if emptyStartTime.IsZero() {
					emptyStartTime = time.Now()
				} else if qm.config.AutoExitOnEmpty && time.Since(emptyStartTime) > qm.config.EmptyWaitTime {
					qm.logger.Info("Queue empty past wait time, exiting processor")
					return
				}
				continue
			}

			emptyStartTime = time.Time{}

			// Spawn a goroutine per job; the single-slot semaphore in the
			// download manager serializes the actual engine work. Jobs still
			// waiting on the semaphore stay in the in-flight set so the next
			// tick does not pick them up again.
			for _, download := range pending {
				dl := download
				qm.mu.Lock()
				if qm.inFlight[dl.ID] {
					qm.mu.Unlock()
					continue
				}
				qm.inFlight[dl.ID] = true
				qm.mu.Unlock()

				qm.workerWg.Add(1)
				go func() {
					defer qm.workerWg.Done()
					defer func() {
						qm.mu.Lock()
						delete(qm.inFlight, dl.ID)
						qm.mu.Unlock()
					}()
					if err := qm.downloadMgr.ProcessDownload(ctx, dl); err != nil {
						qm.logger.Warn("Download did not complete",
							zap.String("id", dl.ID),
							zap.Error(err))
					}
				}()
			}
		}
	}
}
