// Package fetch retrieves provider feed documents over HTTP.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/heritagemedia/feedgen/internal/catalog"
	"github.com/heritagemedia/feedgen/internal/httpclient"
	"github.com/heritagemedia/feedgen/internal/log"
)

// SourceTimeout bounds each secondary source fetch so one slow source
// cannot stall the whole build.
const SourceTimeout = 15 * time.Second

// validScheme rejects file://, ftp:// and anything else that could reach
// local files when a URL comes from configuration.
func validScheme(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// Feed retrieves and parses the provider catalog. Any failure here is
// fatal to a build: there is nothing to generate from without it.
func Feed(ctx context.Context, client *http.Client, url string) (*catalog.FeedDocument, error) {
	if !validScheme(url) {
		return nil, fmt.Errorf("fetch: provider feed: unsupported url %q", url)
	}
	body, err := httpclient.GetBody(ctx, client, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: provider feed: %w", err)
	}
	doc, err := catalog.ParseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("fetch: provider feed: %w", err)
	}
	logger := log.WithComponent("fetch")
	logger.Debug().
		Str("url", url).
		Int("items", len(doc.Movies)).
		Msg("provider feed fetched")
	return doc, nil
}

// SourceItems retrieves one secondary source's items. Transport and JSON
// errors are returned for the caller's per-source isolation boundary; a
// well-formed document without a movies array is simply zero items.
func SourceItems(ctx context.Context, client *http.Client, url string) ([]catalog.RawItem, error) {
	if !validScheme(url) {
		return nil, fmt.Errorf("fetch: source: unsupported url %q", url)
	}
	ctx, cancel := context.WithTimeout(ctx, SourceTimeout)
	defer cancel()

	body, err := httpclient.GetBody(ctx, client, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: source: %w", err)
	}
	var top map[string]any
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("fetch: source: %w", err)
	}
	rawMovies, ok := top["movies"].([]any)
	if !ok {
		return nil, nil
	}
	items := make([]catalog.RawItem, 0, len(rawMovies))
	for _, m := range rawMovies {
		if item, ok := m.(map[string]any); ok {
			items = append(items, catalog.RawItem(item))
		}
	}
	return items, nil
}
