// Package enhance merges a base catalog with live broadcast entries and
// secondary content sources into one prioritized feed document.
//
// The merge is deterministic for fixed inputs: entries are gathered in a
// fixed step order (live or highlight, base episodes, secondary sources in
// declaration order) and sorted stably by priority then release date, so
// two runs over identical inputs produce identical output.
package enhance

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/heritagemedia/feedgen/internal/catalog"
	"github.com/heritagemedia/feedgen/internal/config"
	"github.com/heritagemedia/feedgen/internal/fetch"
	"github.com/heritagemedia/feedgen/internal/log"
	"github.com/heritagemedia/feedgen/internal/metrics"
	"github.com/heritagemedia/feedgen/internal/schedule"
)

// Feed version stamped into every enhanced document.
const Version = "2.1-enhanced"

const enhancedBy = "Heritage Church Enhanced Roku System"

// Priority tiers. Live always outranks everything, the latest-episode
// highlight outranks the plain catalog, secondary sources rank below it.
const (
	PriorityLive      = 1000
	PriorityHighlight = 900
	PriorityBase      = 500
	PriorityDefault   = 100
)

const baseCategory = "main-sermons"

// liveDuration is the nominal length advertised for a live entry.
const liveDuration = 7200

// Entry is one prioritized feed item: the raw provider record plus the
// merge fields. Item already carries the overrides; the typed fields exist
// for sorting and counting.
type Entry struct {
	Item        catalog.RawItem
	Priority    int
	Category    string
	IsLive      bool
	ReleaseDate time.Time
}

// ContentSummary is recomputed on every build and embedded in the
// enhanced document; it is never stored on its own.
type ContentSummary struct {
	TotalMovies       int  `json:"totalMovies"`
	LiveContent       int  `json:"liveContent"`
	MainSermons       int  `json:"mainSermons"`
	AdditionalContent int  `json:"additionalContent"`
	IsLiveServiceTime bool `json:"isLiveServiceTime"`
}

// Result is the outcome of one enhancement run. SourceErrors carries the
// isolated per-source failures so the run summary can show degradation
// without the build having failed.
type Result struct {
	Document     map[string]any
	Entries      []Entry
	Summary      ContentSummary
	SourceErrors map[string]error
}

// Engine merges one base feed per call. Safe for sequential reuse; it
// holds no per-run state.
type Engine struct {
	cfg    *config.Config
	eval   *schedule.Evaluator
	client *http.Client
	logger zerolog.Logger

	// Now is the clock; swapped in tests.
	Now func() time.Time
}

func New(cfg *config.Config, client *http.Client) *Engine {
	return &Engine{
		cfg:    cfg,
		eval:   schedule.NewEvaluator(cfg.Livestream.Timezone),
		client: client,
		logger: log.WithComponent("enhance"),
		Now:    time.Now,
	}
}

// Enhance builds the enhanced document from an already-parsed base feed.
// A nil base is fatal; everything downstream of it degrades per source or
// per step instead of failing the run.
func (e *Engine) Enhance(ctx context.Context, base *catalog.FeedDocument) (*Result, error) {
	if base == nil {
		return nil, fmt.Errorf("enhance: no base feed to enhance")
	}
	now := e.Now()
	// a missing or disabled schedule turns off both the live entry and
	// the highlight clone; the base tier and the sources still build
	scheduled := e.cfg.Livestream.Enabled && len(e.cfg.Livestream.Services) > 0
	isLive := scheduled && e.eval.IsActive(e.cfg.Livestream.Services, now)

	var entries []Entry

	switch {
	case isLive:
		if live := e.liveEntry(now); live != nil {
			e.logger.Info().Str("title", live.Item.Str("title")).Msg("live window active, adding live entry")
			entries = append(entries, *live)
		}
	case scheduled && len(base.Movies) > 0:
		entries = append(entries, e.highlightEntry(base, now))
	}

	for _, item := range base.Movies {
		clone := item.Clone()
		clone["priority"] = PriorityBase
		clone["category"] = baseCategory
		entries = append(entries, Entry{
			Item:        clone,
			Priority:    PriorityBase,
			Category:    baseCategory,
			ReleaseDate: itemDate(item, now),
		})
	}

	sourceEntries, sourceErrs := e.fetchSources(ctx, now)
	entries = append(entries, sourceEntries...)

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].ReleaseDate.After(entries[j].ReleaseDate)
	})

	summary := ContentSummary{
		TotalMovies:       len(entries),
		MainSermons:       len(base.Movies),
		AdditionalContent: len(sourceEntries),
		IsLiveServiceTime: isLive,
	}
	for _, en := range entries {
		if en.IsLive {
			summary.LiveContent++
		}
	}

	doc := e.buildDocument(base, entries, summary, now)
	e.logger.Info().
		Int("total", summary.TotalMovies).
		Int("base", summary.MainSermons).
		Int("additional", summary.AdditionalContent).
		Bool("live", isLive).
		Msg("enhanced feed built")

	return &Result{
		Document:     doc,
		Entries:      entries,
		Summary:      summary,
		SourceErrors: sourceErrs,
	}, nil
}

// liveEntry synthesizes the priority-1000 live broadcast item from the
// active slot's metadata. Returns nil when no slot matches today, which
// can happen if the clock crossed midnight between the window check and
// this call.
func (e *Engine) liveEntry(now time.Time) *Entry {
	slot := e.eval.ActiveSlot(e.cfg.Livestream.Services, now)
	if slot == nil || e.cfg.Livestream.URL == "" {
		return nil
	}
	item := catalog.RawItem{
		"id":               "live-heritage-" + uuid.NewString(),
		"title":            "🔴 LIVE: " + slot.Title,
		"shortDescription": slot.Description,
		"longDescription":  slot.Description + ". Broadcasting live from " + e.cfg.Roku.ProviderName + ".",
		"thumbnail":        e.cfg.Podcast.Artwork,
		"releaseDate":      now.UTC().Format(time.RFC3339),
		"genres":           []string{"live", "worship", "faith"},
		"tags":             []string{"live", "worship", "church"},
		"content": map[string]any{
			"dateAdded": now.UTC().Format(time.RFC3339),
			"captions":  []any{},
			"duration":  liveDuration,
			"videos": []any{
				map[string]any{
					"url":       e.cfg.Livestream.URL,
					"quality":   "HD",
					"videoType": "HLS",
				},
			},
		},
		"isLive":   true,
		"priority": PriorityLive,
	}
	return &Entry{
		Item:        item,
		Priority:    PriorityLive,
		IsLive:      true,
		ReleaseDate: now,
	}
}

// highlightEntry clones the newest base episode at priority 900 with a
// "latest" title marker. The original stays in the base set, so the same
// episode appears twice; that duplication is long-standing published
// behavior and is kept.
func (e *Engine) highlightEntry(base *catalog.FeedDocument, now time.Time) Entry {
	latest := base.Movies[0]
	latestDate := itemDate(latest, now)
	for _, item := range base.Movies[1:] {
		if d := itemDate(item, now); d.After(latestDate) {
			latest, latestDate = item, d
		}
	}
	clone := latest.Clone()
	clone["title"] = "🆕 Latest: " + latest.Str("title")
	clone["priority"] = PriorityHighlight
	return Entry{
		Item:        clone,
		Priority:    PriorityHighlight,
		ReleaseDate: latestDate,
	}
}

// fetchSources retrieves every configured secondary source concurrently
// and returns their entries merged in declaration order. A failed source
// contributes zero items and its error; it never fails the build.
func (e *Engine) fetchSources(ctx context.Context, now time.Time) ([]Entry, map[string]error) {
	sources := e.cfg.AdditionalContent
	results := make([][]catalog.RawItem, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		if !src.Configured() {
			e.logger.Debug().Str("source", src.Key).Msg("source not configured, skipping")
			continue
		}
		i, src := i, src
		g.Go(func() error {
			items, err := fetch.SourceItems(gctx, e.client, src.URL)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait() // goroutines record errors per source, never return them

	var entries []Entry
	sourceErrs := make(map[string]error)
	for i, src := range sources {
		if !src.Configured() {
			continue
		}
		if errs[i] != nil {
			e.logger.Warn().Err(errs[i]).Str("source", src.Key).Msg("source fetch failed, contributing zero items")
			metrics.SourceFetches.WithLabelValues(src.Key, "error").Inc()
			sourceErrs[src.Key] = errs[i]
			continue
		}
		metrics.SourceFetches.WithLabelValues(src.Key, "ok").Inc()
		for _, item := range results[i] {
			entries = append(entries, e.sourceEntry(src, item, now))
		}
		e.logger.Info().Str("source", src.Key).Int("items", len(results[i])).Msg("source merged")
	}
	return entries, sourceErrs
}

// sourceEntry tags one secondary item with its source's identity and
// priority.
func (e *Engine) sourceEntry(src config.Source, item catalog.RawItem, now time.Time) Entry {
	clone := item.Clone()
	if src.Title != "" {
		clone["title"] = "[" + src.Title + "] " + item.Str("title")
	}
	clone["genres"] = appendStrings(item["genres"], src.Key)
	clone["tags"] = appendStrings(item["tags"], src.Key, strings.ToLower(src.Title))
	clone["priority"] = src.Priority
	clone["category"] = src.Key
	return Entry{
		Item:        clone,
		Priority:    src.Priority,
		Category:    src.Key,
		ReleaseDate: itemDate(item, now),
	}
}

// buildDocument assembles the output JSON: the base document's unknown
// top-level fields pass through, then the enhancement fields overwrite the
// known ones.
func (e *Engine) buildDocument(base *catalog.FeedDocument, entries []Entry, summary ContentSummary, now time.Time) map[string]any {
	doc := make(map[string]any, len(base.Extra)+8)
	for k, v := range base.Extra {
		doc[k] = v
	}
	movies := make([]catalog.RawItem, len(entries))
	for i, en := range entries {
		movies[i] = en.Item
	}

	baseGenerated := "unknown"
	if s, ok := base.Extra["lastUpdated"].(string); ok && s != "" {
		baseGenerated = s
	}
	stamp := now.UTC().Format(time.RFC3339)

	doc["providerName"] = e.cfg.Roku.ProviderName
	doc["lastUpdated"] = stamp
	doc["movies"] = movies
	doc["version"] = Version
	doc["enhancedBy"] = enhancedBy
	doc["baseGenerated"] = baseGenerated
	doc["enhancedGenerated"] = stamp
	doc["contentSummary"] = summary
	return doc
}

// itemDate parses an item's releaseDate. Unparseable dates resolve to
// now, the same fallback the catalog normalizer applies, so an undated
// item ranks as freshly published in both paths.
func itemDate(item catalog.RawItem, now time.Time) time.Time {
	if t, ok := catalog.ParseDate(item.Str("releaseDate")); ok {
		return t
	}
	return now
}

// appendStrings copies a raw string list and appends extra values,
// dropping empties. The original slice is never mutated.
func appendStrings(raw any, extra ...string) []string {
	var out []string
	if list, ok := raw.([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	for _, s := range extra {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
