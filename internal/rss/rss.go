// Package rss renders the video podcast feed (RSS 2.0 + iTunes tags).
package rss

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/heritagemedia/feedgen/internal/catalog"
	"github.com/heritagemedia/feedgen/internal/config"
)

const itunesNS = "http://www.itunes.com/dtds/podcast-1.0.dtd"

// pubDateFormat matches the RFC2822-style dates podcast clients expect.
const pubDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

type document struct {
	XMLName  xml.Name `xml:"rss"`
	Version  string   `xml:"version,attr"`
	ItunesNS string   `xml:"xmlns:itunes,attr"`
	Channel  channel  `xml:"channel"`
}

type channel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	PubDate       string    `xml:"pubDate"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Author        string    `xml:"itunes:author"`
	Image         *image    `xml:"itunes:image,omitempty"`
	Explicit      string    `xml:"itunes:explicit"`
	Category      *category `xml:"itunes:category,omitempty"`
	Items         []item    `xml:"item"`
}

type image struct {
	Href string `xml:"href,attr"`
}

type category struct {
	Text string    `xml:"text,attr"`
	Sub  *category `xml:"itunes:category,omitempty"`
}

type item struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	GUID        guid      `xml:"guid"`
	PubDate     string    `xml:"pubDate"`
	Enclosure   enclosure `xml:"enclosure"`
	ItunesTitle string    `xml:"itunes:title"`
	Duration    string    `xml:"itunes:duration"`
	Episode     int       `xml:"itunes:episode"`
	Image       *image    `xml:"itunes:image,omitempty"`
}

type guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type enclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Generator renders one feed per call. Client, when set, is used for HEAD
// requests to fill enclosure byte lengths; a nil Client reports "0" for
// every length, which podcast clients tolerate.
type Generator struct {
	Config *config.Config
	Client *http.Client
	Now    func() time.Time
}

func New(cfg *config.Config, client *http.Client) *Generator {
	return &Generator{Config: cfg, Client: client, Now: time.Now}
}

// Generate renders the feed for every playable episode, newest first.
// Episodes without a primary URL are skipped, not errors.
func (g *Generator) Generate(ctx context.Context, cat *catalog.Catalog) ([]byte, error) {
	cfg := g.Config
	now := g.Now().UTC().Format(pubDateFormat)

	ch := channel{
		Title:         cfg.Podcast.Title + " - Video",
		Link:          firstNonEmpty(cfg.Podcast.Website, cfg.BaseURL),
		Description:   cfg.Podcast.Description + " - Full video sermons",
		Language:      cfg.Podcast.Language,
		PubDate:       now,
		LastBuildDate: now,
		Author:        cfg.Podcast.Author,
		Explicit:      "false",
	}
	if cfg.Podcast.Artwork != "" {
		ch.Image = &image{Href: cfg.Podcast.Artwork}
	}
	if cfg.Podcast.Category != "" {
		ch.Category = &category{Text: cfg.Podcast.Category}
		if cfg.Podcast.Subcategory != "" {
			ch.Category.Sub = &category{Text: cfg.Podcast.Subcategory}
		}
	}

	playable := make([]catalog.Episode, 0, len(cat.Episodes))
	for _, ep := range cat.SortedByDateDesc() {
		if ep.HasVideo() {
			playable = append(playable, ep)
		}
	}
	for i, ep := range playable {
		ch.Items = append(ch.Items, item{
			Title:       scrub(ep.Title),
			Description: scrub(ep.Description),
			GUID:        guid{IsPermaLink: "false", Value: "vimeo-video-" + ep.ID},
			PubDate:     ep.ReleaseDate.UTC().Format(pubDateFormat),
			Enclosure: enclosure{
				URL:    ep.PrimaryURL,
				Length: g.contentLength(ctx, ep.PrimaryURL),
				Type:   enclosureType(ep.PrimaryURL),
			},
			ItunesTitle: scrub(ep.Title),
			Duration:    FormatDuration(ep.Duration),
			Episode:     len(playable) - i,
			Image:       thumbnailImage(ep.Thumbnail),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	doc := document{Version: "2.0", ItunesNS: itunesNS, Channel: ch}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("rss: encode: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// contentLength HEADs the enclosure URL; any failure reports "0". HLS
// manifests are skipped outright: their byte length says nothing about
// the media behind them.
func (g *Generator) contentLength(ctx context.Context, url string) string {
	if g.Client == nil || strings.Contains(url, ".m3u8") {
		return "0"
	}
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "0"
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return "0"
	}
	resp.Body.Close()
	if resp.ContentLength <= 0 {
		return "0"
	}
	return strconv.FormatInt(resp.ContentLength, 10)
}

func enclosureType(url string) string {
	if strings.Contains(url, ".m3u8") {
		return "application/x-mpegURL"
	}
	return "video/mp4"
}

func thumbnailImage(url string) *image {
	if url == "" {
		return nil
	}
	return &image{Href: url}
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	entityReplacer    = strings.NewReplacer(
		"&rsquo;", "'",
		"&lsquo;", "'",
		"&ldquo;", `"`,
		"&rdquo;", `"`,
		"&ndash;", "-",
		"&mdash;", "--",
		"&hellip;", "...",
		"&nbsp;", " ",
	)
)

// scrub strips HTML tags and typographic entities provider descriptions
// tend to carry, and collapses whitespace. XML escaping itself is the
// encoder's job.
func scrub(s string) string {
	s = entityReplacer.Replace(s)
	s = tagPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
