package audio

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heritagemedia/feedgen/internal/catalog"
)

// fakeFFmpeg writes a stub executable standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func testEpisode() *catalog.Episode {
	return &catalog.Episode{
		ID:             "100",
		Title:          "Latest Sermon",
		ReleaseDateRaw: "2024-01-14T10:00:00Z",
		PrimaryURL:     "https://cdn.example.org/latest.m3u8",
	}
}

func TestExtractWritesInfoFile(t *testing.T) {
	dir := t.TempDir()
	x := New(dir, "https://example.org/media/")
	x.FFmpeg = fakeFFmpeg(t, "exit 0")
	x.Now = func() time.Time { return time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC) }

	info, err := x.Extract(context.Background(), testEpisode())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if info.URL != "https://example.org/media/latest-sermon-phone.mp3" {
		t.Errorf("url = %q", info.URL)
	}
	if info.Generated != "2024-01-15T08:00:00Z" {
		t.Errorf("generated = %q", info.Generated)
	}

	data, err := os.ReadFile(filepath.Join(dir, InfoName))
	if err != nil {
		t.Fatalf("read info: %v", err)
	}
	var onDisk PhoneInfo
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("unmarshal info: %v", err)
	}
	if onDisk.Title != "Latest Sermon" || onDisk.Date != "2024-01-14T10:00:00Z" {
		t.Errorf("info = %+v", onDisk)
	}
}

func TestExtractReportsFFmpegFailure(t *testing.T) {
	dir := t.TempDir()
	x := New(dir, "https://example.org")
	x.FFmpeg = fakeFFmpeg(t, `echo "input not found" >&2; exit 3`)

	if _, err := x.Extract(context.Background(), testEpisode()); err == nil {
		t.Fatal("want error for non-zero ffmpeg exit")
	}
	if _, err := os.Stat(filepath.Join(dir, InfoName)); !os.IsNotExist(err) {
		t.Error("info file should not exist after a failed extraction")
	}
}

func TestExtractRejectsUnplayableEpisode(t *testing.T) {
	x := New(t.TempDir(), "https://example.org")
	if _, err := x.Extract(context.Background(), &catalog.Episode{ID: "1"}); err == nil {
		t.Fatal("want error for episode without video")
	}
	if _, err := x.Extract(context.Background(), nil); err == nil {
		t.Fatal("want error for nil episode")
	}
}
