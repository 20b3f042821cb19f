package catalog

import "testing"

func TestClassifyFormatsBuckets(t *testing.T) {
	formats, primary := ClassifyFormats([]RawVideoDescriptor{
		{URL: "https://cdn.example.org/a.mp4", VideoType: VideoMP4, Quality: "HD"},
		{URL: "https://cdn.example.org/a.m3u8", VideoType: VideoHLS},
		{URL: "https://cdn.example.org/a-sd.mp4", VideoType: VideoMP4, Quality: "SD"},
		{URL: "https://cdn.example.org/a.webm", VideoType: "WEBM"},
	})
	if len(formats) != 3 {
		t.Fatalf("formats = %v, want 3 entries", formats)
	}
	if formats["hls"] != "https://cdn.example.org/a.m3u8" {
		t.Errorf("hls = %q", formats["hls"])
	}
	if formats["mp4_hd"] != "https://cdn.example.org/a.mp4" || formats["mp4_sd"] != "https://cdn.example.org/a-sd.mp4" {
		t.Errorf("mp4 buckets = %v", formats)
	}
	// first descriptor wins the primary slot regardless of later HLS
	if primary.URL != "https://cdn.example.org/a.mp4" || primary.Quality != "HD" {
		t.Errorf("primary = %+v", primary)
	}
}

func TestClassifyFormatsManifestExtensionImpliesHLS(t *testing.T) {
	formats, _ := ClassifyFormats([]RawVideoDescriptor{
		{URL: "https://cdn.example.org/live.m3u8", VideoType: "MISC"},
	})
	if formats["hls"] != "https://cdn.example.org/live.m3u8" {
		t.Errorf("formats = %v", formats)
	}
}

func TestClassifyFormatsSingleHLSKey(t *testing.T) {
	formats, _ := ClassifyFormats([]RawVideoDescriptor{
		{URL: "https://cdn.example.org/one.m3u8", VideoType: VideoHLS},
		{URL: "https://cdn.example.org/two.m3u8", VideoType: VideoHLS},
	})
	if len(formats) != 1 {
		t.Fatalf("formats = %v, want exactly one hls key", formats)
	}
	// last writer wins
	if formats["hls"] != "https://cdn.example.org/two.m3u8" {
		t.Errorf("hls = %q", formats["hls"])
	}
}

func TestClassifyFormatsDuplicateQualityOverwrites(t *testing.T) {
	formats, _ := ClassifyFormats([]RawVideoDescriptor{
		{URL: "https://cdn.example.org/old.mp4", VideoType: VideoMP4, Quality: "HD"},
		{URL: "https://cdn.example.org/new.mp4", VideoType: VideoMP4, Quality: "hd"},
	})
	if len(formats) != 1 || formats["mp4_hd"] != "https://cdn.example.org/new.mp4" {
		t.Errorf("formats = %v", formats)
	}
}

func TestClassifyFormatsQualityDefaults(t *testing.T) {
	formats, primary := ClassifyFormats([]RawVideoDescriptor{
		{URL: "https://cdn.example.org/x.mp4", VideoType: VideoMP4},
	})
	if formats["mp4_hd"] != "https://cdn.example.org/x.mp4" {
		t.Errorf("formats = %v, want default hd bucket", formats)
	}
	if primary.Quality != "HD" {
		t.Errorf("primary quality = %q, want HD default", primary.Quality)
	}
}

func TestClassifyFormatsEmptyListIsNotAnError(t *testing.T) {
	formats, primary := ClassifyFormats(nil)
	if len(formats) != 0 {
		t.Errorf("formats = %v, want empty", formats)
	}
	if primary.URL != "" {
		t.Errorf("primary = %+v, want none", primary)
	}
}
