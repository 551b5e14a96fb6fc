package infrastructure

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/internal/domain"
)

func testEngine() *YTDLPEngine {
	cfg := &domain.EngineConfig{
		Binary:          "yt-dlp",
		Retries:         3,
		FragmentRetries: 3,
		SocketTimeout:   30 * time.Second,
		ProbeTimeout:    30 * time.Second,
	}
	return NewYTDLPEngine(cfg, "", zap.NewNop())
}

func TestDownloadArgsVideo(t *testing.T) {
	e := testEngine()
	args := e.downloadArgs("https://www.youtube.com/watch?v=dQw4w9WgXcQ", domain.DownloadOptions{
		OutputTemplate: "/work/%(title)s.%(ext)s",
		Format:         "best[ext=mp4]/best",
		MergeContainer: "mp4",
		ClientProfile:  "android",
		NoPlaylist:     true,
		Retries:        3,
		FragmentRetries: 3,
		SocketTimeout:  30 * time.Second,
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--newline")
	assert.Contains(t, joined, "--progress-template")
	assert.Contains(t, joined, "-f best[ext=mp4]/best")
	assert.Contains(t, joined, "-o /work/%(title)s.%(ext)s")
	assert.Contains(t, joined, "--merge-output-format mp4")
	assert.Contains(t, joined, "--no-playlist")
	assert.Contains(t, joined, "--extractor-args youtube:player_client=android")
	assert.Contains(t, joined, "--retries 3")
	assert.Contains(t, joined, "--fragment-retries 3")
	assert.Contains(t, joined, "--socket-timeout 30")
	assert.NotContains(t, joined, "-x")
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", args[len(args)-1])
}

func TestDownloadArgsAudioExtraction(t *testing.T) {
	e := testEngine()
	args := e.downloadArgs("https://youtu.be/dQw4w9WgXcQ", domain.DownloadOptions{
		OutputTemplate: "/work/%(title)s.%(ext)s",
		Format:         "bestaudio/best",
		ExtractAudio:   true,
		AudioCodec:     "mp3",
		AudioQuality:   "192K",
		SocketTimeout:  30 * time.Second,
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-x")
	assert.Contains(t, joined, "--audio-format mp3")
	assert.Contains(t, joined, "--audio-quality 192K")
	assert.NotContains(t, joined, "--merge-output-format")
	assert.NotContains(t, joined, "--no-playlist")
}

func TestClientArgsHeadersSorted(t *testing.T) {
	args := clientArgs("ios", map[string]string{
		"X-Custom":   "1",
		"User-Agent": "test-agent",
		"Accept":     "*/*",
	})

	assert.Equal(t, []string{
		"--extractor-args", "youtube:player_client=ios",
		"--add-headers", "Accept:*/*",
		"--add-headers", "User-Agent:test-agent",
		"--add-headers", "X-Custom:1",
	}, args)
}

func TestClientArgsEmpty(t *testing.T) {
	assert.Empty(t, clientArgs("", nil))
}

func TestParseProgressLine(t *testing.T) {
	raw, ok := parseProgressLine("YTG|downloading|1048576|2097152|/work/video.mp4")

	require.True(t, ok)
	assert.Equal(t, "downloading", raw.Status)
	assert.Equal(t, int64(1048576), raw.BytesDone)
	assert.Equal(t, int64(2097152), raw.BytesTotal)
	assert.Equal(t, "/work/video.mp4", raw.Filename)
}

func TestParseProgressLineIgnoresOtherOutput(t *testing.T) {
	for _, line := range []string{
		"[youtube] dQw4w9WgXcQ: Downloading webpage",
		"[download]  42.0% of 10.00MiB at 1.00MiB/s",
		"YTG|incomplete",
		"",
	} {
		_, ok := parseProgressLine(line)
		assert.False(t, ok, line)
	}
}

func TestParseProgressLineUnknownTotal(t *testing.T) {
	raw, ok := parseProgressLine("YTG|downloading|512|NA|video.mp4")

	require.True(t, ok)
	assert.Equal(t, int64(512), raw.BytesDone)
	assert.Equal(t, int64(0), raw.BytesTotal)
}

func TestParseByteField(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1024", 1024},
		{"1048576.5", 1048576},
		{"NA", 0},
		{"None", 0},
		{"", 0},
		{" 2048 ", 2048},
		{"garbage", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseByteField(tt.in), tt.in)
	}
}

func TestParseDestinationLine(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`[download] Destination: /work/video.f137.mp4`, "/work/video.f137.mp4"},
		{`[Merger] Merging formats into "/work/video.mp4"`, "/work/video.mp4"},
		{`[ExtractAudio] Destination: /work/song.mp3`, "/work/song.mp3"},
		{`[youtube] dQw4w9WgXcQ: Downloading webpage`, ""},
		{`YTG|downloading|1|2|x`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDestinationLine(tt.line), tt.line)
	}
}

func TestClassifyEngineError(t *testing.T) {
	base := errors.New("exit status 1")
	tests := []struct {
		name   string
		stderr string
		want   domain.EngineErrorKind
	}{
		{"forbidden", "ERROR: unable to download video data: HTTP Error 403: Forbidden", domain.EngineErrAccessDenied},
		{"rate limited", "ERROR: HTTP Error 429: Too Many Requests", domain.EngineErrAccessDenied},
		{"bot check", "ERROR: Sign in to confirm you're not a bot", domain.EngineErrAccessDenied},
		{"private", "ERROR: This video is private", domain.EngineErrAccessDenied},
		{"members only", "ERROR: Join this channel to get access to members-only content", domain.EngineErrAccessDenied},
		{"no format", "ERROR: Requested format is not available", domain.EngineErrNoFormat},
		{"invalid url", "ERROR: 'notaurl' is not a valid URL", domain.EngineErrInvalidURL},
		{"unsupported", "ERROR: Unsupported URL: https://example.com", domain.EngineErrInvalidURL},
		{"json decode", "json.decoder.JSONDecodeError: Expecting value: line 1 column 1", domain.EngineErrCollectionParse},
		{"network default", "ERROR: unable to download webpage: <urlopen error timed out>", domain.EngineErrNetwork},
		{"empty stderr", "", domain.EngineErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyEngineError(tt.stderr, base)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, base)
		})
	}
}

func TestClassifyEngineErrorDetailIsFirstLine(t *testing.T) {
	stderr := "ERROR: first line\nWARNING: second line\n"
	got := classifyEngineError(stderr, errors.New("exit status 1"))
	assert.Equal(t, "ERROR: first line", got.Detail)
}

func TestFirstLineTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	assert.Len(t, firstLine(long), 200)
	assert.Equal(t, "abc", firstLine("  abc  \ndef"))
}
