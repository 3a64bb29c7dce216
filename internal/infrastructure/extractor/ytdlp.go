// Package extractor implements the media extractor on top of the yt-dlp tool
package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
)

// Config holds extractor configuration
type Config struct {
	// BinPath is the yt-dlp executable
	BinPath string
	// CookiesFile is passed through to yt-dlp when set
	CookiesFile string
	// DirectURLMaxBytes caps the size of formats considered for direct links
	DirectURLMaxBytes int64
}

// YtDlp runs the yt-dlp tool as a subprocess. Muxing of separate audio and
// video tracks is delegated to the tool's own merge capability.
type YtDlp struct {
	cfg    Config
	logger zerolog.Logger
}

// NewYtDlp creates a yt-dlp backed extractor
func NewYtDlp(cfg Config, logger zerolog.Logger) *YtDlp {
	if cfg.BinPath == "" {
		cfg.BinPath = "yt-dlp"
	}
	if cfg.DirectURLMaxBytes <= 0 {
		cfg.DirectURLMaxBytes = 4 << 30
	}
	return &YtDlp{
		cfg:    cfg,
		logger: logger.With().Str("component", "extractor").Logger(),
	}
}

var _ deps.Extractor = (*YtDlp)(nil)

// Probe runs a metadata-only extraction and builds the raw variant list.
func (y *YtDlp) Probe(ctx context.Context, url string) (*entities.ProbeResult, error) {
	args := y.commonArgs()
	args = append(args, "-J", url)

	out, stderr, err := y.run(ctx, args, "")
	if err != nil {
		return nil, classifyExtractionError(stderr, err)
	}

	var info probeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		y.logger.Warn().Err(err).Str("url", url).Msg("failed to parse yt-dlp output")
		return nil, mediaerrors.ErrExtractionFailed
	}

	return &entities.ProbeResult{
		Title:     info.Title,
		Duration:  info.Duration,
		Thumbnail: info.Thumbnail,
		URL:       firstNonEmpty(info.WebpageURL, url),
		Variants:  buildVariants(&info),
	}, nil
}

// Fetch downloads the descriptor's format(s) into a fresh temp dir. When the
// descriptor carries a separate audio format id the two tracks are merged
// into one mp4 container. On error the temp dir is removed before returning.
func (y *YtDlp) Fetch(ctx context.Context, url string, desc entities.VariantDescriptor, progress deps.ProgressFunc) (*entities.LocalFile, error) {
	tempDir, err := os.MkdirTemp("", "mediafetch-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	selector := desc.FormatID
	if desc.AudioFormatID != "" {
		selector = desc.FormatID + "+" + desc.AudioFormatID
	}

	args := y.commonArgs()
	args = append(args,
		"-f", selector,
		"--merge-output-format", "mp4",
		"--newline",
		"-o", filepath.Join(tempDir, "%(title).180B [%(id)s].%(ext)s"),
		url,
	)

	if err := y.runWithProgress(ctx, args, progress); err != nil {
		_ = os.RemoveAll(tempDir)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	path, err := singleFileIn(tempDir)
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, fmt.Errorf("downloaded file not found: %w", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, err
	}

	return &entities.LocalFile{
		Path:       path,
		Size:       stat.Size(),
		Ext:        strings.TrimPrefix(filepath.Ext(path), "."),
		MediaClass: mediaClassFor(desc, filepath.Ext(path)),
		TempDir:    tempDir,
	}, nil
}

// DirectURL re-probes the source and picks the best direct remote URL for the
// chosen variant. Probe answers are not reused here: direct URLs are
// short-lived and a stale one would 403 on the user.
func (y *YtDlp) DirectURL(ctx context.Context, url string, desc entities.VariantDescriptor) (string, error) {
	args := y.commonArgs()
	args = append(args, "-J", url)

	out, stderr, err := y.run(ctx, args, "")
	if err != nil {
		return "", classifyExtractionError(stderr, err)
	}

	var info probeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return "", mediaerrors.ErrExtractionFailed
	}

	direct := bestDirectURL(&info, y.cfg.DirectURLMaxBytes)
	if direct == "" {
		return "", mediaerrors.ErrDeliveryImpossible
	}
	return direct, nil
}

func (y *YtDlp) commonArgs() []string {
	args := []string{"--no-playlist", "--quiet", "--no-warnings"}
	if y.cfg.CookiesFile != "" {
		args = append(args, "--cookies", y.cfg.CookiesFile)
	}
	return args
}

func (y *YtDlp) run(ctx context.Context, args []string, dir string) (stdout []byte, stderr string, err error) {
	cmd := exec.CommandContext(ctx, y.cfg.BinPath, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.String(), err
}

// runWithProgress streams yt-dlp's --newline output, feeding parsed download
// percentages into the progress callback.
func (y *YtDlp) runWithProgress(ctx context.Context, args []string, progress deps.ProgressFunc) error {
	cmd := exec.CommandContext(ctx, y.cfg.BinPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open yt-dlp pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	var lastLine string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		lastLine = line
		if progress == nil {
			continue
		}
		if downloaded, total, ok := parseProgressLine(line); ok {
			progress(downloaded, total)
		}
	}

	if err := cmd.Wait(); err != nil {
		return classifyExtractionError(lastLine, err)
	}
	return nil
}

// singleFileIn returns the one regular file inside dir.
func singleFileIn(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", os.ErrNotExist
}

// classifyExtractionError maps yt-dlp failures onto the catalog error taxonomy.
func classifyExtractionError(stderr string, err error) error {
	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "unsupported url"):
		return mediaerrors.ErrUnsupportedSource
	case strings.Contains(s, "private video"),
		strings.Contains(s, "video unavailable"),
		strings.Contains(s, "this video is not available"),
		strings.Contains(s, "sign in to confirm"):
		return mediaerrors.ErrPrivateOrUnavailable
	default:
		return mediaerrors.ErrExtractionFailed
	}
}

func mediaClassFor(desc entities.VariantDescriptor, ext string) string {
	if desc.Kind == entities.KindAudioOnly {
		return "audio"
	}
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg", "png", "webp":
		return "image"
	case "mp4", "mkv", "webm", "mov":
		return "video"
	default:
		return "document"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
