package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/internal/domain"
)

// DownloadExecutor runs the probe-then-download pipeline for one request.
// Strategies are tried strictly in order; there is never more than one
// engine invocation in flight per request.
type DownloadExecutor struct {
	engine    domain.Engine
	resolver  *URLResolver
	chain     []domain.Strategy
	engineCfg *domain.EngineConfig
	logger    *zap.Logger
}

// NewDownloadExecutor creates a new download executor
func NewDownloadExecutor(
	engine domain.Engine,
	resolver *URLResolver,
	chain []domain.Strategy,
	engineCfg *domain.EngineConfig,
	logger *zap.Logger,
) *DownloadExecutor {
	return &DownloadExecutor{
		engine:    engine,
		resolver:  resolver,
		chain:     chain,
		engineCfg: engineCfg,
		logger:    logger,
	}
}

// Execute probes the target, then walks the strategy chain until one attempt
// succeeds or all are exhausted. Cancellation is honored between attempts;
// an in-flight engine invocation is interrupted through its context.
func (e *DownloadExecutor) Execute(
	ctx context.Context,
	req domain.DownloadRequest,
	target domain.ResolvedTarget,
	spec domain.FormatSpec,
	workDir domain.WorkingDirectory,
	onEvent func(domain.ProgressEvent),
) domain.Result {
	tracker := NewProgressTracker(onEvent)
	tracker.Probing()

	noPlaylist := !(target.WasPlaylist && target.VideoID == "")

	meta, target, result := e.probe(ctx, req, target, noPlaylist)
	if result != nil {
		return *result
	}

	e.logFormatInventory(target.CanonicalURL, meta)

	var lastErr error
	for i, strategy := range e.chain {
		if err := ctx.Err(); err != nil {
			return failure(domain.ErrDownloadFailed, "download cancelled")
		}

		opts := domain.DownloadOptions{
			OutputTemplate:  filepath.Join(workDir.Path, "%(title)s.%(ext)s"),
			Format:          strategy.FormatFor(spec),
			ClientProfile:   strategy.ClientProfile,
			Headers:         strategy.Headers,
			NoPlaylist:      noPlaylist,
			Retries:         e.engineCfg.Retries,
			FragmentRetries: e.engineCfg.FragmentRetries,
			SocketTimeout:   e.engineCfg.SocketTimeout,
		}
		if spec.Transcode != nil {
			opts.ExtractAudio = true
			opts.AudioCodec = spec.Transcode.Codec
			opts.AudioQuality = spec.Transcode.Quality
		} else {
			opts.MergeContainer = spec.MergeContainer
		}
		if err := opts.Validate(); err != nil {
			return failure(domain.ErrDownloadFailed, fmt.Sprintf("invalid download options: %v", err))
		}

		e.logger.Info("Trying download strategy",
			zap.String("strategy", strategy.Name),
			zap.Int("attempt", i+1),
			zap.Int("total", len(e.chain)),
			zap.String("format", opts.Format))

		written, err := e.engine.Download(ctx, target.CanonicalURL, opts, tracker.Handle)
		if err == nil {
			artifact := written
			if artifact == "" {
				artifact = tracker.LastFilename()
			}
			e.logger.Info("Strategy succeeded",
				zap.String("strategy", strategy.Name),
				zap.String("reported_file", artifact))
			return domain.Result{
				Success:      true,
				ArtifactPath: artifact,
				Title:        meta.Title,
			}
		}

		lastErr = err
		e.logger.Warn("Strategy failed",
			zap.String("strategy", strategy.Name),
			zap.String("error_kind", string(domain.EngineErrorKindOf(err))),
			zap.Error(err))
	}

	if lastErr == nil {
		return failure(domain.ErrDownloadFailed, "no strategies configured")
	}

	// The final attempt decides the terminal classification; it ran with the
	// most permissive strategy, so its failure mode is the authoritative one.
	switch domain.EngineErrorKindOf(lastErr) {
	case domain.EngineErrAccessDenied:
		return failure(domain.ErrAccessDenied,
			fmt.Sprintf("access denied after exhausting all client profiles: %v", lastErr))
	case domain.EngineErrNoFormat:
		return failure(domain.ErrNoMatchingFormat,
			fmt.Sprintf("no format satisfied the request: %v", lastErr))
	default:
		return failure(domain.ErrDownloadFailed,
			fmt.Sprintf("all strategies exhausted: %v", lastErr))
	}
}

// probe fetches metadata, applying the two fallback re-resolutions: the
// last-resort id scan after a collection parse failure, and first-entry
// selection when the engine still reports a collection.
func (e *DownloadExecutor) probe(
	ctx context.Context,
	req domain.DownloadRequest,
	target domain.ResolvedTarget,
	noPlaylist bool,
) (*domain.Metadata, domain.ResolvedTarget, *domain.Result) {
	opts := domain.ProbeOptions{NoPlaylist: noPlaylist}
	if len(e.chain) > 0 {
		opts.ClientProfile = e.chain[0].ClientProfile
		opts.Headers = e.chain[0].Headers
	}

	meta, err := e.engine.Probe(ctx, target.CanonicalURL, opts)
	if err != nil {
		switch domain.EngineErrorKindOf(err) {
		case domain.EngineErrCollectionParse:
			id := e.resolver.LastResortID(req.URL)
			if id == "" {
				r := failure(domain.ErrURLUnresolvable,
					fmt.Sprintf("collection could not be parsed and no video id was recoverable: %v", err))
				return nil, target, &r
			}
			e.logger.Info("Collection parse failed, retrying with recovered video id",
				zap.String("video_id", id))
			target = domain.ResolvedTarget{
				CanonicalURL: CanonicalWatchURL(id),
				VideoID:      id,
				WasPlaylist:  target.WasPlaylist,
			}
			meta, err = e.engine.Probe(ctx, target.CanonicalURL, domain.ProbeOptions{NoPlaylist: true})
			if err != nil {
				// The recovered id was the last resort; when even its clean
				// single-item probe fails, the URL cannot be resolved.
				r := failure(domain.ErrURLUnresolvable,
					fmt.Sprintf("recovered video id %s could not be probed: %v", id, err))
				return nil, target, &r
			}
		case domain.EngineErrInvalidURL:
			r := failure(domain.ErrURLUnresolvable, fmt.Sprintf("url not resolvable: %v", err))
			return nil, target, &r
		case domain.EngineErrAccessDenied:
			r := failure(domain.ErrAccessDenied, fmt.Sprintf("metadata probe denied: %v", err))
			return nil, target, &r
		default:
			r := probeFailure(err)
			return nil, target, &r
		}
	}

	if meta.IsCollection() {
		entry := meta.Entries[0]
		e.logger.Info("Probe returned a collection, selecting first entry",
			zap.String("entry_id", entry.ID),
			zap.String("entry_title", entry.Title))
		if entry.ID != "" {
			target = domain.ResolvedTarget{
				CanonicalURL: CanonicalWatchURL(entry.ID),
				VideoID:      entry.ID,
				WasPlaylist:  true,
			}
		} else if entry.URL != "" {
			target = domain.ResolvedTarget{CanonicalURL: entry.URL, WasPlaylist: true}
		} else {
			r := failure(domain.ErrURLUnresolvable, "collection entry carries no id or url")
			return nil, target, &r
		}
		meta, err = e.engine.Probe(ctx, target.CanonicalURL, domain.ProbeOptions{NoPlaylist: true})
		if err != nil {
			r := probeFailure(err)
			return nil, target, &r
		}
	}

	return meta, target, nil
}

// logFormatInventory records the probed formats as a download diagnostic,
// highest resolution first.
func (e *DownloadExecutor) logFormatInventory(url string, meta *domain.Metadata) {
	formats := make([]domain.FormatInfo, len(meta.Formats))
	copy(formats, meta.Formats)
	sort.Slice(formats, func(i, j int) bool {
		if formats[i].Height != formats[j].Height {
			return formats[i].Height > formats[j].Height
		}
		return formats[i].FileSize > formats[j].FileSize
	})

	limit := len(formats)
	if limit > 8 {
		limit = 8
	}
	fields := []zap.Field{
		zap.String("url", url),
		zap.String("title", meta.Title),
		zap.Int("format_count", len(formats)),
	}
	for _, f := range formats[:limit] {
		fields = append(fields, zap.String("format_"+f.FormatID,
			fmt.Sprintf("%dp %s video=%t audio=%t", f.Height, f.Ext, f.HasVideo, f.HasAudio)))
	}
	e.logger.Debug("Probed format inventory", fields...)
}

func failure(kind domain.ErrorKind, message string) domain.Result {
	return domain.Result{ErrorKind: kind, Message: message}
}

func probeFailure(err error) domain.Result {
	switch domain.EngineErrorKindOf(err) {
	case domain.EngineErrInvalidURL:
		return failure(domain.ErrURLUnresolvable, fmt.Sprintf("url not resolvable: %v", err))
	case domain.EngineErrAccessDenied:
		return failure(domain.ErrAccessDenied, fmt.Sprintf("metadata probe denied: %v", err))
	default:
		return failure(domain.ErrProbeFailed, fmt.Sprintf("metadata probe failed: %v", err))
	}
}
