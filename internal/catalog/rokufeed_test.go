package catalog

import (
	"testing"
	"time"
)

func TestBuildRokuFeed(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	doc, err := ParseFeed([]byte(`{"movies":[
		{"id":"old","title":"Old","releaseDate":"2024-01-07T10:00:00Z",
		 "providerExtra":"kept",
		 "content":{"duration":1800,"videos":[{"url":"https://cdn.example.org/old.m3u8","quality":"HD","videoType":"HLS"}]}},
		{"id":"new","title":"New","releaseDate":"2024-01-14T10:00:00Z",
		 "content":{"duration":2400,"videos":[{"url":"https://cdn.example.org/new.m3u8","quality":"HD","videoType":"HLS"}]}},
		{"id":"broken","title":"No Video","releaseDate":"2024-01-01T10:00:00Z"}
	]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cat := Build(doc, now)
	feed := BuildRokuFeed(cat, "Heritage Church", "", now)

	if feed["providerName"] != "Heritage Church" || feed["language"] != "en" {
		t.Errorf("metadata = %v / %v", feed["providerName"], feed["language"])
	}
	movies := feed["movies"].([]RawItem)
	if len(movies) != 2 {
		t.Fatalf("movies = %d; unplayable episode must be skipped", len(movies))
	}
	if movies[0].Str("id") != "new" || movies[1].Str("id") != "old" {
		t.Errorf("order = %q, %q; want newest first", movies[0].Str("id"), movies[1].Str("id"))
	}
	if movies[1]["providerExtra"] != "kept" {
		t.Error("provider passthrough field dropped")
	}
	// defaults applied where the provider omitted them
	genres := movies[0]["genres"].([]string)
	tags := movies[0]["tags"].([]string)
	if len(genres) != 1 || genres[0] != "faith" || len(tags) != 1 || tags[0] != "sermon" {
		t.Errorf("defaults = genres %v, tags %v", genres, tags)
	}
}

func TestRokuMovieRebuildsMissingVideos(t *testing.T) {
	ep := Episode{
		ID:             "x",
		Title:          "X",
		ReleaseDateRaw: "2024-01-07T10:00:00Z",
		Duration:       600,
		Formats: FormatSet{
			"hls":    "https://cdn.example.org/x.m3u8",
			"mp4_hd": "https://cdn.example.org/x-hd.mp4",
			"mp4_sd": "https://cdn.example.org/x-sd.mp4",
		},
		PrimaryURL: "https://cdn.example.org/x.m3u8",
		Raw:        RawItem{"id": "x", "title": "X"},
	}
	m := rokuMovie(ep)
	content := m["content"].(map[string]any)
	videos := content["videos"].([]any)
	if len(videos) != 3 {
		t.Fatalf("videos = %d, want 3", len(videos))
	}
	first := videos[0].(map[string]any)
	if first["videoType"] != "HLS" {
		t.Errorf("first video = %v, want HLS first", first)
	}
	second := videos[1].(map[string]any)
	third := videos[2].(map[string]any)
	if second["quality"] != "HD" || third["quality"] != "SD" {
		t.Errorf("mp4 order = %v, %v; want HD then SD", second["quality"], third["quality"])
	}
}

func TestRokuMovieDoesNotMutateRaw(t *testing.T) {
	raw := RawItem{
		"id":    "x",
		"title": "Original",
		"content": map[string]any{
			"duration": float64(600),
			"videos":   []any{map[string]any{"url": "https://cdn.example.org/x.m3u8", "videoType": "HLS"}},
		},
	}
	ep := NormalizeItem(raw, time.Now())
	ep.Title = "Renamed"
	m := rokuMovie(ep)
	if m.Str("title") != "Renamed" {
		t.Errorf("movie title = %q", m.Str("title"))
	}
	if raw.Str("title") != "Original" {
		t.Error("rokuMovie mutated the raw record")
	}
}
