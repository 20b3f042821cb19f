package catalog

import (
	"strings"
	"time"

	"github.com/heritagemedia/feedgen/internal/log"
)

// releaseDateLayouts are tried in order when parsing provider dates.
// Providers in the wild emit full RFC3339 timestamps, date-only strings,
// and the occasional RFC1123 leftover from RSS tooling.
var releaseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Build normalizes every item of a parsed feed into a Catalog. Items are
// kept in feed order. now is used as GeneratedAt and as the fallback for
// unparseable release dates so one build is internally consistent.
func Build(doc *FeedDocument, now time.Time) *Catalog {
	logger := log.WithComponent("catalog")
	cat := &Catalog{
		Episodes:    make([]Episode, 0, len(doc.Movies)),
		GeneratedAt: now,
	}
	for _, item := range doc.Movies {
		ep := NormalizeItem(item, now)
		if !ep.HasVideo() {
			logger.Warn().Str("id", ep.ID).Str("title", ep.Title).
				Msg("item has no playable video; kept in catalog, outputs will skip it")
		}
		if ep.DateFallback {
			logger.Warn().Str("id", ep.ID).Str("releaseDate", ep.ReleaseDateRaw).
				Msg("unparseable release date; using build time")
		}
		cat.Episodes = append(cat.Episodes, ep)
	}
	return cat
}

// NormalizeItem maps one raw provider item into an Episode. Missing or
// malformed fields resolve to documented defaults (empty thumbnail, zero
// duration, now as release date) instead of failing the build.
func NormalizeItem(item RawItem, now time.Time) Episode {
	ep := Episode{
		ID:        str(item["id"]),
		Title:     str(item["title"]),
		Thumbnail: str(item["thumbnail"]),
		Tags:      strSlice(item["tags"]),
		Genres:    strSlice(item["genres"]),
		Raw:       item,
	}

	ep.Description = str(item["shortDescription"])
	if ep.Description == "" {
		ep.Description = ep.Title
	}

	ep.ReleaseDateRaw = str(item["releaseDate"])
	if t, ok := ParseDate(ep.ReleaseDateRaw); ok {
		ep.ReleaseDate = t
	} else {
		ep.ReleaseDate = now
		ep.DateFallback = true
	}

	content, _ := item["content"].(map[string]any)
	if content != nil {
		if d := intNum(content["duration"]); d > 0 {
			ep.Duration = d
		}
	}

	classifyItemVideos(content, &ep)
	return ep
}

// classifyItemVideos extracts the descriptor list from the item's content
// block, classifies it, and fills the episode's format fields.
func classifyItemVideos(content map[string]any, ep *Episode) {
	var descriptors []RawVideoDescriptor
	if content != nil {
		if rawVideos, ok := content["videos"].([]any); ok {
			descriptors = make([]RawVideoDescriptor, 0, len(rawVideos))
			for _, rv := range rawVideos {
				v, ok := rv.(map[string]any)
				if !ok {
					continue
				}
				descriptors = append(descriptors, RawVideoDescriptor{
					URL:       str(v["url"]),
					VideoType: VideoType(strings.ToUpper(str(v["videoType"]))),
					Quality:   str(v["quality"]),
				})
			}
		}
	}
	formats, primary := ClassifyFormats(descriptors)
	ep.Formats = formats
	ep.PrimaryURL = primary.URL
	ep.PrimaryQuality = primary.Quality
	if ep.PrimaryQuality == "" {
		ep.PrimaryQuality = "HD"
	}
}

// ParseDate parses a provider release date, trying each known layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Tolerant coercion for duck-typed provider JSON.

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func intNum(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	default:
		return 0
	}
}

func strSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
