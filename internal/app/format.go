package app

import (
	"github.com/yourusername/ytgrab/internal/domain"
)

// FormatSelector maps (media kind, quality ceiling) to an ordered set of
// format clauses. Clause order prefers single combined streams over local
// merges so sound is never sacrificed for resolution, and every chain ends
// in a clause without a container restriction.
type FormatSelector struct {
	preferredContainer string
	audioCodec         string
	audioQuality       string
}

// NewFormatSelector creates a selector from the download configuration
func NewFormatSelector(cfg *domain.DownloadConfig) *FormatSelector {
	return &FormatSelector{
		preferredContainer: cfg.PreferredContainer,
		audioCodec:         cfg.AudioCodec,
		audioQuality:       cfg.AudioQuality,
	}
}

// Select builds the format spec for one request. The ceiling applies to
// every video clause; 0 means best available.
func (s *FormatSelector) Select(kind domain.MediaKind, qualityCeiling int) domain.FormatSpec {
	if kind == domain.KindAudio {
		return domain.FormatSpec{
			Clauses: []domain.FormatClause{
				{Kind: domain.ClauseAudioOnly},
				{Kind: domain.ClauseCombined},
			},
			Transcode: &domain.AudioTranscode{
				Codec:   s.audioCodec,
				Quality: s.audioQuality,
			},
		}
	}

	clauses := []domain.FormatClause{
		{Kind: domain.ClauseCombined, MaxHeight: qualityCeiling, Container: s.preferredContainer},
		{Kind: domain.ClauseCombined, MaxHeight: qualityCeiling},
		{Kind: domain.ClauseMerge, MaxHeight: qualityCeiling, Container: s.preferredContainer},
		{Kind: domain.ClauseMerge, MaxHeight: qualityCeiling},
	}
	if qualityCeiling > 0 {
		// Safety net for sources whose only combined stream sits below the
		// ceiling in an odd encoding.
		clauses = append(clauses, domain.FormatClause{
			Kind:      domain.ClauseCombined,
			MaxHeight: qualityCeiling,
			Worst:     true,
		})
	}

	return domain.FormatSpec{
		Clauses:        clauses,
		MergeContainer: s.preferredContainer,
	}
}
