package domain

import (
	"fmt"
	"strings"
)

// MediaKind selects which track of the asset is retrieved.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// ValidateKind checks if a media kind is valid
func ValidateKind(kind MediaKind) bool {
	return kind == KindVideo || kind == KindAudio
}

// ErrorKind tags every terminal failure surfaced to the caller.
type ErrorKind string

const (
	ErrNone                ErrorKind = ""
	ErrURLUnresolvable     ErrorKind = "url_unresolvable"
	ErrProbeFailed         ErrorKind = "probe_failed"
	ErrNoMatchingFormat    ErrorKind = "no_matching_format"
	ErrAccessDenied        ErrorKind = "access_denied"
	ErrDownloadFailed      ErrorKind = "download_failed"
	ErrArtifactNotFound    ErrorKind = "artifact_not_found"
	ErrPreconditionMissing ErrorKind = "precondition_missing"
)

// Remediation returns a suggestion the presentation layer can show next to
// the failure message, or "" when there is nothing actionable.
func (k ErrorKind) Remediation() string {
	switch k {
	case ErrURLUnresolvable:
		return "use a direct video URL instead of a playlist link"
	case ErrAccessDenied:
		return "the source is blocking requests right now; wait and retry"
	case ErrNoMatchingFormat:
		return "try a different quality ceiling or audio-only mode"
	case ErrPreconditionMissing:
		return "install ffmpeg and make sure it is on PATH"
	default:
		return ""
	}
}

// DownloadRequest describes one retrieval. Immutable once submitted.
type DownloadRequest struct {
	URL            string
	Kind           MediaKind
	QualityCeiling int    // target max vertical resolution; 0 means best available
	Destination    string // custom folder; empty selects a temporary directory
}

// Validate checks the request fields before any orchestration starts.
func (r DownloadRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("url is required")
	}
	if !ValidateKind(r.Kind) {
		return fmt.Errorf("invalid media kind: %s", r.Kind)
	}
	if r.QualityCeiling < 0 {
		return fmt.Errorf("quality ceiling cannot be negative")
	}
	return nil
}

// ResolvedTarget is the single-item form of a request URL, derived once
// before any network call.
type ResolvedTarget struct {
	CanonicalURL string
	VideoID      string // 11-character identifier when extraction succeeded
	WasPlaylist  bool
}

// ClauseKind distinguishes the stream arrangements a format clause can ask for.
type ClauseKind int

const (
	// ClauseCombined selects a single stream carrying both picture and sound.
	ClauseCombined ClauseKind = iota
	// ClauseMerge selects a picture-only stream plus a sound-only stream,
	// merged locally into one container.
	ClauseMerge
	// ClauseAudioOnly selects the best sound-only stream.
	ClauseAudioOnly
)

// FormatClause is one priority level of a format-selection expression.
type FormatClause struct {
	Kind      ClauseKind
	MaxHeight int    // 0 = unrestricted
	Container string // preferred container extension; "" = any
	Worst     bool   // rank ascending instead of descending
}

// Render produces the engine's selector syntax for this clause.
func (c FormatClause) Render() string {
	filters := ""
	if c.MaxHeight > 0 {
		filters += fmt.Sprintf("[height<=%d]", c.MaxHeight)
	}
	if c.Container != "" {
		filters += fmt.Sprintf("[ext=%s]", c.Container)
	}

	switch c.Kind {
	case ClauseAudioOnly:
		return "bestaudio" + filters
	case ClauseMerge:
		return "bestvideo" + filters + "+bestaudio"
	default:
		base := "best"
		if c.Worst {
			base = "worst"
		}
		return base + filters
	}
}

// AudioTranscode is a fixed post-processing instruction applied after an
// audio-only download.
type AudioTranscode struct {
	Codec   string
	Quality string
}

// FormatSpec is an ordered list of clauses; earlier clauses take priority.
// Every spec carries at least one clause without a container restriction so
// a match is guaranteed whenever any streamable format exists.
type FormatSpec struct {
	Clauses        []FormatClause
	MergeContainer string
	Transcode      *AudioTranscode
}

// Expression renders the whole spec as a single priority-ordered selector.
func (s FormatSpec) Expression() string {
	parts := make([]string, 0, len(s.Clauses))
	for _, c := range s.Clauses {
		parts = append(parts, c.Render())
	}
	return strings.Join(parts, "/")
}

// Strategy is one engine configuration tried by the executor. The chain
// order encodes a fixed preference; a strategy never changes the request,
// only how the engine identifies itself and which selector it is handed.
type Strategy struct {
	Name           string
	ClientProfile  string
	Headers        map[string]string
	FormatOverride string // replaces the rendered FormatSpec when set
}

// FormatFor renders the selector this strategy submits to the engine.
func (s Strategy) FormatFor(spec FormatSpec) string {
	if s.FormatOverride != "" {
		return s.FormatOverride
	}
	return spec.Expression()
}

// ProgressPhase labels where in the pipeline a progress event originated.
type ProgressPhase string

const (
	PhaseProbing     ProgressPhase = "probing"
	PhaseDownloading ProgressPhase = "downloading"
	PhaseFinished    ProgressPhase = "finished"
)

// ProgressEvent is one tick of the typed progress stream.
type ProgressEvent struct {
	Phase         ProgressPhase `json:"phase"`
	BytesDone     int64         `json:"bytes_done"`
	BytesTotal    int64         `json:"bytes_total,omitempty"`
	Fraction      float64       `json:"fraction"`
	FractionKnown bool          `json:"fraction_known"`
	Label         string        `json:"label"`
}

// Result is the terminal outcome of one request.
type Result struct {
	Success      bool
	ArtifactPath string
	Title        string
	SizeBytes    int64
	ErrorKind    ErrorKind
	Message      string
}

// WorkingDirectory is owned by the storage manager for the duration of one
// request. Non-custom directories are deleted, contents included, when the
// request completes.
type WorkingDirectory struct {
	Path     string
	IsCustom bool
}
