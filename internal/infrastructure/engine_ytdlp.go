package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/internal/domain"
)

// progressTemplate makes yt-dlp emit machine-readable progress lines on
// stdout. Fields are pipe-delimited behind a fixed prefix so they survive
// mixed in with the regular extractor output.
const progressTemplate = "download:YTG|%(progress.status)s|%(progress.downloaded_bytes|0)s|%(progress.total_bytes,progress.total_bytes_estimate|0)s|%(progress.filename)s"

// YTDLPEngine drives the yt-dlp binary as an external process. It is the
// only place in the codebase that inspects engine output text; everything
// above it works with typed errors and progress values.
type YTDLPEngine struct {
	config  *domain.EngineConfig
	logsDir string
	logger  *zap.Logger
}

// NewYTDLPEngine creates a new yt-dlp engine adapter
func NewYTDLPEngine(config *domain.EngineConfig, logsDir string, logger *zap.Logger) *YTDLPEngine {
	return &YTDLPEngine{
		config:  config,
		logsDir: logsDir,
		logger:  logger,
	}
}

// probePayload mirrors the subset of `yt-dlp -J` output the pipeline needs.
type probePayload struct {
	Title   string        `json:"title"`
	Type    string        `json:"_type"`
	Formats []probeFormat `json:"formats"`
	Entries []probeEntry  `json:"entries"`
}

type probeFormat struct {
	FormatID       string `json:"format_id"`
	Height         int    `json:"height"`
	Ext            string `json:"ext"`
	Vcodec         string `json:"vcodec"`
	Acodec         string `json:"acodec"`
	Filesize       int64  `json:"filesize"`
	FilesizeApprox int64  `json:"filesize_approx"`
}

type probeEntry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Probe fetches metadata without downloading anything
func (e *YTDLPEngine) Probe(ctx context.Context, url string, opts domain.ProbeOptions) (*domain.Metadata, error) {
	probeCtx, cancel := context.WithTimeout(ctx, e.config.ProbeTimeout)
	defer cancel()

	args := []string{"-J", "--no-download", "--no-warnings"}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	args = append(args, clientArgs(opts.ClientProfile, opts.Headers)...)
	args = append(args, url)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(probeCtx, e.config.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("Probing metadata",
		zap.String("url", url),
		zap.String("client_profile", opts.ClientProfile))

	if err := cmd.Run(); err != nil {
		return nil, classifyEngineError(stderr.String(), err)
	}

	var payload probePayload
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		// The extractor printed something that is not the expected document,
		// which in practice means a collection page it could not flatten.
		return nil, &domain.EngineError{
			Kind:   domain.EngineErrCollectionParse,
			Detail: "metadata document could not be parsed",
			Err:    err,
		}
	}

	meta := &domain.Metadata{Title: payload.Title}
	for _, f := range payload.Formats {
		size := f.Filesize
		if size == 0 {
			size = f.FilesizeApprox
		}
		meta.Formats = append(meta.Formats, domain.FormatInfo{
			FormatID: f.FormatID,
			Height:   f.Height,
			Ext:      f.Ext,
			HasVideo: f.Vcodec != "" && f.Vcodec != "none",
			HasAudio: f.Acodec != "" && f.Acodec != "none",
			FileSize: size,
		})
	}
	if payload.Type == "playlist" || len(payload.Entries) > 0 {
		for _, entry := range payload.Entries {
			meta.Entries = append(meta.Entries, domain.CollectionEntry{
				ID:    entry.ID,
				URL:   entry.URL,
				Title: entry.Title,
			})
		}
	}
	return meta, nil
}

// Download runs one transfer attempt, streaming progress lines back through
// the callback and appending all engine output to the dated download log.
func (e *YTDLPEngine) Download(ctx context.Context, url string, opts domain.DownloadOptions, onProgress domain.ProgressFunc) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", fmt.Errorf("invalid download options: %w", err)
	}
	if onProgress == nil {
		onProgress = func(domain.RawProgress) {}
	}

	args := e.downloadArgs(url, opts)

	downloadLog, err := e.openLogFile()
	if err != nil {
		return "", fmt.Errorf("failed to open download log: %w", err)
	}
	defer downloadLog.Close()

	cmdLine := ShellEscapeCommand(e.config.Binary, args...)
	writeLogHeader(downloadLog, url, cmdLine)

	cmd := exec.CommandContext(ctx, e.config.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to open engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		writeLogFooter(downloadLog, false, fmt.Sprintf("failed to start engine: %v", err))
		return "", fmt.Errorf("failed to start engine: %w", err)
	}

	writtenFile := ""
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(downloadLog, line)

		if raw, ok := parseProgressLine(line); ok {
			onProgress(raw)
			continue
		}
		if f := parseDestinationLine(line); f != "" {
			writtenFile = f
		}
	}

	err = cmd.Wait()
	if stderr.Len() > 0 {
		downloadLog.WriteString(stderr.String())
	}
	if err != nil {
		writeLogFooter(downloadLog, false, fmt.Sprintf("engine exited with error: %v", err))
		return "", classifyEngineError(stderr.String(), err)
	}

	writeLogFooter(downloadLog, true, fmt.Sprintf("wrote %s", writtenFile))
	return writtenFile, nil
}

func (e *YTDLPEngine) downloadArgs(url string, opts domain.DownloadOptions) []string {
	args := []string{
		"--newline",
		"--no-warnings",
		"--progress-template", progressTemplate,
		"-f", opts.Format,
		"-o", opts.OutputTemplate,
	}
	if opts.ExtractAudio {
		args = append(args, "-x", "--audio-format", opts.AudioCodec)
		if opts.AudioQuality != "" {
			args = append(args, "--audio-quality", opts.AudioQuality)
		}
	} else if opts.MergeContainer != "" {
		args = append(args, "--merge-output-format", opts.MergeContainer)
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	args = append(args, clientArgs(opts.ClientProfile, opts.Headers)...)
	args = append(args,
		"--retries", strconv.Itoa(opts.Retries),
		"--fragment-retries", strconv.Itoa(opts.FragmentRetries),
		"--socket-timeout", strconv.Itoa(int(opts.SocketTimeout.Seconds())),
	)
	return append(args, url)
}

// clientArgs renders the client profile and header overrides. Headers are
// sorted so the argument order is stable for logs and tests.
func clientArgs(profile string, headers map[string]string) []string {
	var args []string
	if profile != "" {
		args = append(args, "--extractor-args", "youtube:player_client="+profile)
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--add-headers", k+":"+headers[k])
	}
	return args
}

// parseProgressLine decodes one progress-template line. Returns false for
// ordinary extractor output.
func parseProgressLine(line string) (domain.RawProgress, bool) {
	if !strings.HasPrefix(line, "YTG|") {
		return domain.RawProgress{}, false
	}
	parts := strings.SplitN(line[len("YTG|"):], "|", 4)
	if len(parts) != 4 {
		return domain.RawProgress{}, false
	}
	return domain.RawProgress{
		Status:     parts[0],
		BytesDone:  parseByteField(parts[1]),
		BytesTotal: parseByteField(parts[2]),
		Filename:   parts[3],
	}, true
}

func parseByteField(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "None" {
		return 0
	}
	// Estimates come through as floats.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// parseDestinationLine picks up the file yt-dlp announces it is writing.
// Post-processors announce after the raw download, so later lines win.
func parseDestinationLine(line string) string {
	if rest, ok := strings.CutPrefix(line, "[Merger] Merging formats into \""); ok {
		return strings.TrimSuffix(rest, "\"")
	}
	if rest, ok := strings.CutPrefix(line, "[ExtractAudio] Destination: "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(line, "[download] Destination: "); ok {
		return rest
	}
	return ""
}

// classifyEngineError maps engine output to a typed failure. Matching is on
// lowercased stderr because yt-dlp is not consistent about casing.
func classifyEngineError(stderr string, err error) *domain.EngineError {
	out := strings.ToLower(stderr)

	accessMarkers := []string{
		"http error 403",
		"http error 429",
		"forbidden",
		"sign in to confirm",
		"confirm you're not a bot",
		"this video is private",
		"members-only",
	}
	for _, marker := range accessMarkers {
		if strings.Contains(out, marker) {
			return &domain.EngineError{Kind: domain.EngineErrAccessDenied, Detail: firstLine(stderr), Err: err}
		}
	}

	if strings.Contains(out, "requested format is not available") {
		return &domain.EngineError{Kind: domain.EngineErrNoFormat, Detail: firstLine(stderr), Err: err}
	}

	invalidMarkers := []string{"is not a valid url", "unsupported url"}
	for _, marker := range invalidMarkers {
		if strings.Contains(out, marker) {
			return &domain.EngineError{Kind: domain.EngineErrInvalidURL, Detail: firstLine(stderr), Err: err}
		}
	}

	collectionMarkers := []string{"jsondecodeerror", "failed to parse json", "expecting value"}
	for _, marker := range collectionMarkers {
		if strings.Contains(out, marker) {
			return &domain.EngineError{Kind: domain.EngineErrCollectionParse, Detail: firstLine(stderr), Err: err}
		}
	}

	return &domain.EngineError{Kind: domain.EngineErrNetwork, Detail: firstLine(stderr), Err: err}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// openLogFile opens the download log file for today.
// All engine output goes to this single file.
func (e *YTDLPEngine) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	dateStr := time.Now().Format("20060102")
	logPath := filepath.Join(e.logsDir, "download-"+dateStr+".log")
	return os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the download start marker
func writeLogHeader(file *os.File, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	file.WriteString(fmt.Sprintf("\n=== [%s] Download: %s ===\n", timestamp, url))
	file.WriteString(fmt.Sprintf("$ %s\n", cmdLine))
}

// writeLogFooter writes the download end marker
func writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	file.WriteString(fmt.Sprintf("[%s] %s: %s\n", timestamp, status, message))
	file.WriteString("=== END ===\n\n")
}
