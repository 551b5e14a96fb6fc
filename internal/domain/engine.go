package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FormatInfo describes one encoded variant reported by the engine's probe.
type FormatInfo struct {
	FormatID string
	Height   int
	Ext      string
	HasVideo bool
	HasAudio bool
	FileSize int64 // 0 when the engine does not know
}

// CollectionEntry is one item of a collection the engine reported despite
// single-item resolution.
type CollectionEntry struct {
	ID    string
	URL   string
	Title string
}

// Metadata is the result of a metadata-only probe. Probing never writes files.
type Metadata struct {
	Title   string
	Formats []FormatInfo
	Entries []CollectionEntry
}

// IsCollection reports whether the engine classified the URL as a multi-item
// grouping during extraction.
func (m *Metadata) IsCollection() bool {
	return len(m.Entries) > 0
}

// ProbeOptions configures a metadata-only probe.
type ProbeOptions struct {
	ClientProfile string
	Headers       map[string]string
	NoPlaylist    bool
}

// DownloadOptions configures one transfer attempt. All fields the engine
// accepts are enumerated here; permissive option maps are not used.
type DownloadOptions struct {
	OutputTemplate  string
	Format          string
	MergeContainer  string
	ClientProfile   string
	Headers         map[string]string
	ExtractAudio    bool
	AudioCodec      string
	AudioQuality    string
	NoPlaylist      bool
	Retries         int
	FragmentRetries int
	SocketTimeout   time.Duration
}

// Validate rejects incomplete options before the engine is invoked.
func (o DownloadOptions) Validate() error {
	if o.OutputTemplate == "" {
		return fmt.Errorf("output template is required")
	}
	if o.Format == "" {
		return fmt.Errorf("format expression is required")
	}
	if o.ExtractAudio && o.AudioCodec == "" {
		return fmt.Errorf("audio codec is required when extracting audio")
	}
	return nil
}

// RawProgress mirrors the engine's native progress callback payload. The
// callback is invoked synchronously on the engine's execution context and
// must be treated as fire-and-forget.
type RawProgress struct {
	Status     string // "downloading" or "finished"
	BytesDone  int64
	BytesTotal int64 // 0 when unknown
	Filename   string
}

// ProgressFunc receives raw progress callbacks during a download.
type ProgressFunc func(RawProgress)

// Engine is the external extraction/download collaborator. Implementations
// perform the actual network I/O, demuxing and transcoding.
type Engine interface {
	// Probe fetches title and format inventory without writing any files.
	Probe(ctx context.Context, url string, opts ProbeOptions) (*Metadata, error)

	// Download performs the transfer, merge and transcode, returning the
	// filename the engine believes it wrote. The reported name is a hint;
	// post-processing may rename the output after the final callback.
	Download(ctx context.Context, url string, opts DownloadOptions, onProgress ProgressFunc) (string, error)
}

// EngineErrorKind discriminates expected engine failure signatures.
type EngineErrorKind string

const (
	EngineErrInvalidURL      EngineErrorKind = "invalid_url"
	EngineErrNoFormat        EngineErrorKind = "no_format"
	EngineErrAccessDenied    EngineErrorKind = "access_denied"
	EngineErrCollectionParse EngineErrorKind = "collection_parse"
	EngineErrNetwork         EngineErrorKind = "network"
)

// EngineError is a tagged engine failure. Expected failure paths are carried
// as values, not panics.
type EngineError struct {
	Kind   EngineErrorKind
	Detail string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("engine: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("engine: %s", e.Kind)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// EngineErrorKindOf extracts the kind from an error chain, or EngineErrNetwork
// for untagged failures.
func EngineErrorKindOf(err error) EngineErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return EngineErrNetwork
}
