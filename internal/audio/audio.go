// Package audio produces the phone-tree MP3 derivative of the newest
// episode. Callers treat a failure here as a degraded output, never as a
// reason to abort the rest of a build.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/heritagemedia/feedgen/internal/catalog"
	"github.com/heritagemedia/feedgen/internal/feedio"
	"github.com/heritagemedia/feedgen/internal/log"
)

// Output file names, relative to the output directory.
const (
	MP3Name  = "latest-sermon-phone.mp3"
	InfoName = "phone-tree-info.json"
)

// PhoneInfo describes the generated MP3 for the phone-tree system.
type PhoneInfo struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	URL       string `json:"url"`
	Generated string `json:"generated"`
}

// Extractor shells out to ffmpeg. FFmpeg overrides the binary path for
// tests; empty means "ffmpeg" from PATH.
type Extractor struct {
	OutputDir string
	BaseURL   string
	FFmpeg    string
	Now       func() time.Time
}

func New(outputDir, baseURL string) *Extractor {
	return &Extractor{OutputDir: outputDir, BaseURL: baseURL, Now: time.Now}
}

// Extract transcodes the episode's primary rendition to a mono 64 kbps
// 22.05 kHz MP3 suited to phone playback and writes the companion info
// file. The episode must have a playable video.
func (x *Extractor) Extract(ctx context.Context, ep *catalog.Episode) (*PhoneInfo, error) {
	if ep == nil || !ep.HasVideo() {
		return nil, fmt.Errorf("audio: no playable episode for phone extraction")
	}
	logger := log.WithComponent("audio")
	dest := filepath.Join(x.OutputDir, MP3Name)

	args := []string{
		"-i", ep.PrimaryURL,
		"-vn",
		"-acodec", "mp3",
		"-ar", "22050",
		"-ab", "64k",
		"-ac", "1",
		"-f", "mp3",
		"-y",
		dest,
	}
	bin := x.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	logger.Info().Str("title", ep.Title).Msg("extracting phone audio")

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("audio: ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	info := &PhoneInfo{
		Title:     ep.Title,
		Date:      ep.ReleaseDateRaw,
		URL:       strings.TrimRight(x.BaseURL, "/") + "/" + MP3Name,
		Generated: x.Now().UTC().Format(time.RFC3339),
	}
	if err := feedio.WriteJSON(filepath.Join(x.OutputDir, InfoName), info); err != nil {
		return nil, err
	}
	logger.Info().Str("dest", dest).Msg("phone audio ready")
	return info, nil
}

// lastLine trims ffmpeg's stderr down to its final line, which carries
// the actual failure reason.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
