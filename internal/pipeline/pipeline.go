// Package pipeline orchestrates one feed generation run: fetch, build,
// derive the outputs, and record which of them degraded.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/heritagemedia/feedgen/internal/audio"
	"github.com/heritagemedia/feedgen/internal/catalog"
	"github.com/heritagemedia/feedgen/internal/config"
	"github.com/heritagemedia/feedgen/internal/enhance"
	"github.com/heritagemedia/feedgen/internal/feedio"
	"github.com/heritagemedia/feedgen/internal/fetch"
	"github.com/heritagemedia/feedgen/internal/httpclient"
	"github.com/heritagemedia/feedgen/internal/log"
	"github.com/heritagemedia/feedgen/internal/metrics"
	"github.com/heritagemedia/feedgen/internal/rss"
)

// Output names used in run summaries and metrics.
const (
	OutputRoku     = "roku"
	OutputRSS      = "videoPodcast"
	OutputEnhanced = "enhanced"
	OutputPhone    = "phoneTree"
)

// SummaryName is the run summary file, relative to the output directory.
const SummaryName = "run-summary.json"

// RSSName is the video podcast feed file.
const RSSName = "feed-video.xml"

type StepStatus string

const (
	StatusOK       StepStatus = "ok"
	StatusDegraded StepStatus = "degraded"
	StatusFailed   StepStatus = "failed"
	StatusSkipped  StepStatus = "skipped"
)

// StepResult is the recorded outcome of one output.
type StepResult struct {
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// RunSummary shows a human which parts of a build degraded without
// losing the parts that succeeded. Written next to the feeds.
type RunSummary struct {
	Generated string                  `json:"generated"`
	Outputs   map[string]StepResult   `json:"outputs"`
	Summary   *enhance.ContentSummary `json:"contentSummary,omitempty"`
}

// Pipeline runs the feed generation steps against one configuration.
type Pipeline struct {
	Cfg    *config.Config
	Client *http.Client
	Now    func() time.Time
	// FFmpeg overrides the transcoder binary; tests point it at a stub.
	FFmpeg string

	logger zerolog.Logger
}

func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		Cfg:    cfg,
		Client: httpclient.Default(),
		Now:    time.Now,
		logger: log.WithComponent("pipeline"),
	}
}

func (p *Pipeline) outPath(name string) string {
	return filepath.Join(p.Cfg.OutputDir, name)
}

// Build fetches the provider feed and writes the base outputs (Roku feed
// and video podcast RSS). The returned catalog feeds the later steps.
func (p *Pipeline) Build(ctx context.Context, summary *RunSummary) (*catalog.Catalog, error) {
	if err := p.Cfg.ValidateForBuild(); err != nil {
		return nil, fatal(err)
	}
	doc, err := fetch.Feed(ctx, p.Client, p.Cfg.ProviderFeedURL)
	if err != nil {
		return nil, fatal(err)
	}
	cat := catalog.Build(doc, p.Now())
	metrics.CatalogEpisodes.Set(float64(len(cat.Episodes)))
	p.logger.Info().Int("episodes", len(cat.Episodes)).Msg("catalog built")

	if p.Cfg.Outputs.Roku.Enabled {
		feed := catalog.BuildRokuFeed(cat, p.Cfg.Roku.ProviderName, p.Cfg.Podcast.Language, p.Now())
		err := feedio.WriteJSON(p.outPath(enhance.BaseFeedName), feed)
		p.record(summary, OutputRoku, err, "")
	} else {
		p.skip(summary, OutputRoku)
	}

	if p.Cfg.Outputs.VideoPodcast.Enabled {
		var data []byte
		data, err = rss.New(p.Cfg, p.Client).Generate(ctx, cat)
		if err == nil {
			err = feedio.WriteBytes(p.outPath(RSSName), data)
		}
		p.record(summary, OutputRSS, err, "")
	} else {
		p.skip(summary, OutputRSS)
	}
	return cat, nil
}

// Enhance loads the base Roku feed from disk and writes the enhanced
// outputs. A missing or malformed base feed is fatal.
func (p *Pipeline) Enhance(ctx context.Context, summary *RunSummary) (*enhance.Result, error) {
	data, err := os.ReadFile(p.outPath(enhance.BaseFeedName))
	if err != nil {
		return nil, fatal(fmt.Errorf("base feed: %w", err))
	}
	doc, err := catalog.ParseFeed(data)
	if err != nil {
		return nil, fatal(err)
	}
	return p.enhanceDoc(ctx, summary, doc)
}

func (p *Pipeline) enhanceDoc(ctx context.Context, summary *RunSummary, doc *catalog.FeedDocument) (*enhance.Result, error) {
	engine := enhance.New(p.Cfg, p.Client)
	engine.Now = p.Now
	res, err := engine.Enhance(ctx, doc)
	if err != nil {
		return nil, fatal(err)
	}

	err = feedio.WriteJSON(p.outPath(enhance.EnhancedFeedName), res.Document)
	if err == nil {
		err = feedio.WriteJSON(p.outPath(enhance.PublisherFeedName), res.Document)
	}
	if err == nil {
		info := enhance.BuildDeploymentInfo(p.Cfg, res.Summary, p.Now())
		err = feedio.WriteJSON(p.outPath(enhance.InfoName), info)
	}
	p.record(summary, OutputEnhanced, err, sourceFailureDetail(res.SourceErrors))
	if err != nil {
		return nil, collaborator(err)
	}
	summary.Summary = &res.Summary
	return res, nil
}

// Audio extracts the phone MP3 from the newest playable episode. Failures
// are recorded, never returned as fatal.
func (p *Pipeline) Audio(ctx context.Context, summary *RunSummary, cat *catalog.Catalog) {
	if !p.Cfg.Outputs.PhoneTree.Enabled {
		p.skip(summary, OutputPhone)
		return
	}
	latest := latestPlayable(cat)
	if latest == nil {
		p.record(summary, OutputPhone, fmt.Errorf("no playable episode"), "")
		return
	}
	x := audio.New(p.Cfg.OutputDir, p.Cfg.BaseURL)
	x.FFmpeg = p.FFmpeg
	x.Now = p.Now
	_, err := x.Extract(ctx, latest)
	p.record(summary, OutputPhone, err, "")
}

// AudioFromDisk extracts the phone MP3 using the base feed already on
// disk, for the standalone audio subcommand.
func (p *Pipeline) AudioFromDisk(ctx context.Context, summary *RunSummary) error {
	data, err := os.ReadFile(p.outPath(enhance.BaseFeedName))
	if err != nil {
		return fatal(fmt.Errorf("base feed: %w", err))
	}
	doc, err := catalog.ParseFeed(data)
	if err != nil {
		return fatal(err)
	}
	p.Audio(ctx, summary, catalog.Build(doc, p.Now()))
	if res := summary.Outputs[OutputPhone]; res.Status == StatusFailed {
		return collaborator(fmt.Errorf("%s", res.Detail))
	}
	return nil
}

// Run executes the full pipeline: build, enhance, audio, then the run
// summary file. Only a fatal input aborts it.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	timer := prometheus.NewTimer(metrics.BuildDuration)
	defer timer.ObserveDuration()

	summary := NewRunSummary(p.Now())
	cat, err := p.Build(ctx, summary)
	if err != nil {
		return summary, err
	}

	// Enhance consumes the base feed just written; rebuilding the document
	// from the catalog avoids re-reading our own output.
	feed := catalog.BuildRokuFeed(cat, p.Cfg.Roku.ProviderName, p.Cfg.Podcast.Language, p.Now())
	if _, err := p.enhanceDoc(ctx, summary, feedDocument(feed)); err != nil {
		p.logger.Error().Err(err).Msg("enhanced feed failed")
	}

	p.Audio(ctx, summary, cat)

	if err := feedio.WriteJSON(p.outPath(SummaryName), summary); err != nil {
		p.logger.Error().Err(err).Msg("run summary write failed")
	}
	return summary, nil
}

func NewRunSummary(now time.Time) *RunSummary {
	return &RunSummary{
		Generated: now.UTC().Format(time.RFC3339),
		Outputs:   make(map[string]StepResult),
	}
}

// record notes one output's outcome in the summary and metrics. degraded
// carries per-source failure detail for outputs that succeeded partially.
func (p *Pipeline) record(summary *RunSummary, name string, err error, degraded string) {
	switch {
	case err != nil:
		summary.Outputs[name] = StepResult{Status: StatusFailed, Detail: err.Error()}
		metrics.Outputs.WithLabelValues(name, string(StatusFailed)).Inc()
		p.logger.Error().Err(err).Str("output", name).Msg("output failed")
	case degraded != "":
		summary.Outputs[name] = StepResult{Status: StatusDegraded, Detail: degraded}
		metrics.Outputs.WithLabelValues(name, string(StatusDegraded)).Inc()
		p.logger.Warn().Str("output", name).Str("detail", degraded).Msg("output degraded")
	default:
		summary.Outputs[name] = StepResult{Status: StatusOK}
		metrics.Outputs.WithLabelValues(name, string(StatusOK)).Inc()
	}
}

func (p *Pipeline) skip(summary *RunSummary, name string) {
	summary.Outputs[name] = StepResult{Status: StatusSkipped}
}

func sourceFailureDetail(errs map[string]error) string {
	if len(errs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "sources failed: " + strings.Join(keys, ", ")
}

func latestPlayable(cat *catalog.Catalog) *catalog.Episode {
	var latest *catalog.Episode
	for i := range cat.Episodes {
		ep := &cat.Episodes[i]
		if !ep.HasVideo() {
			continue
		}
		if latest == nil || ep.ReleaseDate.After(latest.ReleaseDate) {
			latest = ep
		}
	}
	return latest
}

// feedDocument wraps an in-memory Roku feed map as a parsed document.
func feedDocument(feed map[string]any) *catalog.FeedDocument {
	doc := &catalog.FeedDocument{Extra: make(map[string]any, len(feed))}
	for k, v := range feed {
		if k == "movies" {
			if movies, ok := v.([]catalog.RawItem); ok {
				doc.Movies = movies
			}
			continue
		}
		doc.Extra[k] = v
	}
	return doc
}
