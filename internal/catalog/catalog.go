// Package catalog normalizes a provider media feed into episodes.
//
// A provider feed is a Roku Direct Publisher style JSON document with a
// "movies" array. Items are kept as raw maps alongside the normalized
// fields so unrecognized provider fields survive a round trip; only the
// fields this package knows about are ever rewritten downstream.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidFeed is returned when a feed document has no movies array.
var ErrInvalidFeed = errors.New("catalog: feed has no movies array")

// RawItem is one provider item as received, untouched.
type RawItem map[string]any

// Clone returns a shallow copy safe for per-entry field overrides.
func (r RawItem) Clone() RawItem {
	out := make(RawItem, len(r)+4)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Str returns the item's value under key when it is a string, else "".
func (r RawItem) Str(key string) string {
	s, _ := r[key].(string)
	return s
}

// FeedDocument is a parsed provider feed: the movies array plus every
// other top-level field, preserved verbatim.
type FeedDocument struct {
	Movies []RawItem
	Extra  map[string]any // top-level fields other than "movies"
}

// ParseFeed decodes a feed document. A missing or non-array "movies"
// field is an error: there is nothing to build from.
func ParseFeed(data []byte) (*FeedDocument, error) {
	var top map[string]any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("catalog: parse feed: %w", err)
	}
	rawMovies, ok := top["movies"].([]any)
	if !ok {
		return nil, ErrInvalidFeed
	}
	doc := &FeedDocument{
		Movies: make([]RawItem, 0, len(rawMovies)),
		Extra:  make(map[string]any, len(top)),
	}
	for _, m := range rawMovies {
		item, ok := m.(map[string]any)
		if !ok {
			continue
		}
		doc.Movies = append(doc.Movies, RawItem(item))
	}
	for k, v := range top {
		if k == "movies" {
			continue
		}
		doc.Extra[k] = v
	}
	return doc, nil
}

// VideoType is the provider's declared container/transport for one rendition.
type VideoType string

const (
	VideoHLS VideoType = "HLS"
	VideoMP4 VideoType = "MP4"
)

// RawVideoDescriptor is one rendition reference from a provider item.
type RawVideoDescriptor struct {
	URL       string
	VideoType VideoType
	Quality   string // optional; "" when the provider omitted it
}

// FormatSet maps a canonical format key ("hls", "mp4_<quality>") to a URL.
type FormatSet map[string]string

// Episode is a normalized catalog item.
type Episode struct {
	ID             string
	Title          string
	Description    string
	Thumbnail      string
	ReleaseDate    time.Time
	ReleaseDateRaw string // provider string, kept for passthrough output
	DateFallback   bool   // true when ReleaseDate is a "now" substitute
	Duration       int    // seconds, never negative
	Formats        FormatSet
	PrimaryURL     string
	PrimaryQuality string
	Tags           []string
	Genres         []string

	// Raw is the original provider record. Never mutated; downstream
	// writers clone it before overriding known fields.
	Raw RawItem
}

// HasVideo reports whether the episode has a playable rendition. Episodes
// without one are skipped by output writers rather than failing a build.
func (e *Episode) HasVideo() bool { return e.PrimaryURL != "" }

// Catalog is an ordered set of episodes built from one feed snapshot.
type Catalog struct {
	Episodes    []Episode
	GeneratedAt time.Time
}

// Latest returns the episode with the most recent release date, or nil
// when the catalog is empty. Ties keep the earlier catalog position.
func (c *Catalog) Latest() *Episode {
	var latest *Episode
	for i := range c.Episodes {
		ep := &c.Episodes[i]
		if latest == nil || ep.ReleaseDate.After(latest.ReleaseDate) {
			latest = ep
		}
	}
	return latest
}

// SortedByDateDesc returns a copy of the episodes ordered newest first.
// The sort is stable so same-date episodes keep their feed order.
func (c *Catalog) SortedByDateDesc() []Episode {
	out := make([]Episode, len(c.Episodes))
	copy(out, c.Episodes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReleaseDate.After(out[j].ReleaseDate)
	})
	return out
}
