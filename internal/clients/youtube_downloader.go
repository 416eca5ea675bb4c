package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// MediaURLResolver resolves a video page url into a directly fetchable,
// audio-capable media url. The resolution tool is opaque to callers: a url
// in, a media url or an empty string (nothing suitable) out.
type MediaURLResolver interface {
	ResolveAudioURL(ctx context.Context, videoURL string) (string, error)
}

type ytDlpFormat struct {
	URL      string `json:"url"`
	AudioExt string `json:"audio_ext"`
}

type ytDlpVideoInfo struct {
	RequestedFormats []ytDlpFormat `json:"requested_formats"`
}

// YtDlpResolver implements MediaURLResolver by calling the yt-dlp binary
// with JSON output and picking the first requested format that carries
// audio.
type YtDlpResolver struct {
	// BinaryPath is the path to the yt-dlp executable. Defaults to "yt-dlp".
	BinaryPath string

	// ProxyURL is passed through to yt-dlp when set.
	ProxyURL string

	logger *zap.Logger
}

func NewYtDlpResolver(binaryPath, proxyURL string, logger *zap.Logger) *YtDlpResolver {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}

	return &YtDlpResolver{BinaryPath: binaryPath, ProxyURL: proxyURL, logger: logger}
}

// ResolveAudioURL runs yt-dlp against the video url without downloading
// anything. Returns "" when the video has no format with audio.
func (r *YtDlpResolver) ResolveAudioURL(ctx context.Context, videoURL string) (string, error) {
	args := []string{videoURL, "-j"}
	if r.ProxyURL != "" {
		args = append(args, "--proxy", r.ProxyURL)
	}

	cmd := exec.CommandContext(ctx, r.BinaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, stderr.String())
	}

	r.logger.Debug("yt-dlp finished", zap.String("video_url", videoURL))

	var videoInfo ytDlpVideoInfo
	if err := json.Unmarshal(stdout.Bytes(), &videoInfo); err != nil {
		return "", fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	for _, format := range videoInfo.RequestedFormats {
		if format.AudioExt != "none" {
			return format.URL, nil
		}
	}

	return "", nil
}
