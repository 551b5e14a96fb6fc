package app

import (
	"github.com/yourusername/ytgrab/internal/domain"
)

// DefaultStrategyChain returns the fixed order of engine client profiles
// tried for every download. Earlier entries impersonate the clients least
// likely to be challenged; the final entry drops all format constraints so
// any retrievable stream still succeeds.
func DefaultStrategyChain() []domain.Strategy {
	return []domain.Strategy{
		{
			Name:          "mobile-web",
			ClientProfile: "mweb",
			Headers: map[string]string{
				"User-Agent": "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
			},
		},
		{
			Name:          "android-app",
			ClientProfile: "android",
			Headers: map[string]string{
				"User-Agent": "com.google.android.youtube/19.09.37 (Linux; U; Android 14) gzip",
			},
		},
		{
			Name:          "ios-app",
			ClientProfile: "ios",
			Headers: map[string]string{
				"User-Agent": "com.google.ios.youtube/19.09.3 (iPhone16,2; U; CPU iOS 17_5 like Mac OS X)",
			},
		},
		{
			Name:          "desktop-web",
			ClientProfile: "web",
			Headers: map[string]string{
				"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			},
		},
		{
			Name:           "any-format",
			ClientProfile:  "web",
			FormatOverride: "best/bestvideo+bestaudio",
		},
	}
}
