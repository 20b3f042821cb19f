package catalog

import (
	"sort"
	"strings"
	"time"
)

// BuildRokuFeed assembles the base Roku Direct Publisher document from a
// catalog. Each movie starts from the episode's raw provider record, then
// the normalized fields overwrite the ones this system owns; provider
// fields it never touched pass through. Episodes without playable video
// are skipped. Movies are ordered newest first.
func BuildRokuFeed(cat *Catalog, providerName, language string, now time.Time) map[string]any {
	if language == "" {
		language = "en"
	}
	movies := make([]RawItem, 0, len(cat.Episodes))
	for _, ep := range cat.SortedByDateDesc() {
		if !ep.HasVideo() {
			continue
		}
		movies = append(movies, rokuMovie(ep))
	}
	return map[string]any{
		"providerName": providerName,
		"language":     language,
		"lastUpdated":  now.UTC().Format(time.RFC3339),
		"movies":       movies,
	}
}

func rokuMovie(ep Episode) RawItem {
	m := ep.Raw.Clone()
	m["id"] = ep.ID
	m["title"] = ep.Title
	m["shortDescription"] = ep.Description
	m["thumbnail"] = ep.Thumbnail
	m["releaseDate"] = ep.ReleaseDateRaw
	m["genres"] = defaultStrings(ep.Genres, "faith")
	m["tags"] = defaultStrings(ep.Tags, "sermon")

	content, _ := m["content"].(map[string]any)
	if content == nil {
		content = map[string]any{
			"dateAdded": ep.ReleaseDateRaw,
			"captions":  []any{},
			"duration":  ep.Duration,
		}
	} else {
		// clone before touching; the episode's raw record stays pristine
		cc := make(map[string]any, len(content))
		for k, v := range content {
			cc[k] = v
		}
		content = cc
	}
	if videos, ok := content["videos"].([]any); !ok || len(videos) == 0 {
		content["videos"] = videosFromFormats(ep.Formats)
	}
	m["content"] = content
	return m
}

// videosFromFormats reconstructs the descriptor list for an episode whose
// provider record lost its videos array: the HLS rendition first, then the
// MP4 renditions with quality restored from the format key.
func videosFromFormats(formats FormatSet) []any {
	videos := make([]any, 0, len(formats))
	if url, ok := formats["hls"]; ok {
		videos = append(videos, map[string]any{
			"url":       url,
			"quality":   "HD",
			"videoType": "HLS",
		})
	}
	keys := make([]string, 0, len(formats))
	for key := range formats {
		if strings.HasPrefix(key, "mp4_") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		videos = append(videos, map[string]any{
			"url":       formats[key],
			"quality":   strings.ToUpper(strings.TrimPrefix(key, "mp4_")),
			"videoType": "MP4",
		})
	}
	return videos
}

func defaultStrings(values []string, fallback string) []string {
	if len(values) > 0 {
		return values
	}
	return []string{fallback}
}
