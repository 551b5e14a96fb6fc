package app

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/internal/domain"
)

// Video identifiers are exactly 11 characters drawn from the URL-safe
// base64 alphabet.
var (
	idParamPattern  = regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`)
	idShortPattern  = regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`)
	idEmbedPattern  = regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`)
	idShortsPattern = regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`)

	// Last resort: any boundary-delimited 11-character token. Too permissive
	// to run unconditionally, so it only applies to URLs that carry a known
	// watch-page marker.
	idTokenPattern  = regexp.MustCompile(`(?:^|[^A-Za-z0-9_-])([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)
	watchMarkers    = []string{"watch", "embed", "shorts", "youtu.be"}
	playlistPattern = regexp.MustCompile(`[?&]list=`)
)

// URLResolver turns a submitted URL into its single-item canonical form
// before any network call is made.
type URLResolver struct {
	logger *zap.Logger
}

// NewURLResolver creates a new URL resolver
func NewURLResolver(logger *zap.Logger) *URLResolver {
	return &URLResolver{logger: logger}
}

// Resolve disambiguates playlist links from video links. A URL that carries
// both a video id and a playlist marker resolves to the video alone. A pure
// playlist URL with no extractable id passes through unchanged in degraded
// mode; the engine then decides what the link yields.
func (r *URLResolver) Resolve(rawURL string) (domain.ResolvedTarget, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return domain.ResolvedTarget{}, fmt.Errorf("empty url")
	}

	wasPlaylist := playlistPattern.MatchString(url)
	id := extractVideoID(url)

	if id == "" {
		if wasPlaylist {
			r.logger.Warn("Playlist URL without extractable video id, passing through",
				zap.String("url", url))
			return domain.ResolvedTarget{
				CanonicalURL: url,
				WasPlaylist:  true,
			}, nil
		}
		// Not recognizably a playlist and no id found. Hand the original URL
		// to the engine untouched.
		return domain.ResolvedTarget{CanonicalURL: url}, nil
	}

	return domain.ResolvedTarget{
		CanonicalURL: CanonicalWatchURL(id),
		VideoID:      id,
		WasPlaylist:  wasPlaylist,
	}, nil
}

// CanonicalWatchURL renders the single-item form of a video id.
func CanonicalWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// LastResortID applies only the boundary-delimited token scan. Used after the
// engine reported a collection it could not parse, when the primary patterns
// have already failed.
func (r *URLResolver) LastResortID(rawURL string) string {
	if id := extractVideoID(rawURL); id != "" {
		return id
	}
	return lastResortToken(rawURL)
}

func extractVideoID(url string) string {
	for _, p := range []*regexp.Regexp{idParamPattern, idShortPattern, idEmbedPattern, idShortsPattern} {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return lastResortToken(url)
}

func lastResortToken(url string) string {
	marked := false
	for _, marker := range watchMarkers {
		if strings.Contains(url, marker) {
			marked = true
			break
		}
	}
	if !marked {
		return ""
	}
	if m := idTokenPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}
