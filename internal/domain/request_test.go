package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatClauseRender(t *testing.T) {
	tests := []struct {
		name   string
		clause FormatClause
		want   string
	}{
		{"combined plain", FormatClause{Kind: ClauseCombined}, "best"},
		{"combined with ceiling", FormatClause{Kind: ClauseCombined, MaxHeight: 720}, "best[height<=720]"},
		{"combined with container", FormatClause{Kind: ClauseCombined, MaxHeight: 720, Container: "mp4"}, "best[height<=720][ext=mp4]"},
		{"merge", FormatClause{Kind: ClauseMerge, MaxHeight: 1080}, "bestvideo[height<=1080]+bestaudio"},
		{"merge with container", FormatClause{Kind: ClauseMerge, MaxHeight: 1080, Container: "mp4"}, "bestvideo[height<=1080][ext=mp4]+bestaudio"},
		{"audio only", FormatClause{Kind: ClauseAudioOnly}, "bestaudio"},
		{"worst combined", FormatClause{Kind: ClauseCombined, MaxHeight: 480, Worst: true}, "worst[height<=480]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.clause.Render())
		})
	}
}

func TestFormatSpecExpression(t *testing.T) {
	spec := FormatSpec{
		Clauses: []FormatClause{
			{Kind: ClauseAudioOnly},
			{Kind: ClauseCombined},
		},
	}
	assert.Equal(t, "bestaudio/best", spec.Expression())
}

func TestStrategyFormatFor(t *testing.T) {
	spec := FormatSpec{Clauses: []FormatClause{{Kind: ClauseCombined}}}

	plain := Strategy{Name: "web", ClientProfile: "web"}
	assert.Equal(t, "best", plain.FormatFor(spec))

	catchAll := Strategy{Name: "any-format", FormatOverride: "best/bestvideo+bestaudio"}
	assert.Equal(t, "best/bestvideo+bestaudio", catchAll.FormatFor(spec))
}

func TestDownloadOptionsValidate(t *testing.T) {
	valid := DownloadOptions{OutputTemplate: "/tmp/%(title)s.%(ext)s", Format: "best"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, DownloadOptions{Format: "best"}.Validate())
	assert.Error(t, DownloadOptions{OutputTemplate: "/tmp/x"}.Validate())
	assert.Error(t, DownloadOptions{
		OutputTemplate: "/tmp/x",
		Format:         "bestaudio",
		ExtractAudio:   true,
	}.Validate())
}

func TestEngineErrorKindOf(t *testing.T) {
	tagged := &EngineError{Kind: EngineErrAccessDenied, Detail: "403"}
	assert.Equal(t, EngineErrAccessDenied, EngineErrorKindOf(tagged))

	wrapped := fmt.Errorf("attempt failed: %w", tagged)
	assert.Equal(t, EngineErrAccessDenied, EngineErrorKindOf(wrapped))

	assert.Equal(t, EngineErrNetwork, EngineErrorKindOf(errors.New("plain")))
}

func TestErrorKindRemediation(t *testing.T) {
	assert.NotEmpty(t, ErrURLUnresolvable.Remediation())
	assert.NotEmpty(t, ErrAccessDenied.Remediation())
	assert.NotEmpty(t, ErrNoMatchingFormat.Remediation())
	assert.NotEmpty(t, ErrPreconditionMissing.Remediation())
	assert.Empty(t, ErrDownloadFailed.Remediation())
}
