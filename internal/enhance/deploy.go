package enhance

import (
	"strings"
	"time"

	"github.com/heritagemedia/feedgen/internal/config"
)

// Output file names, relative to the output directory.
const (
	BaseFeedName      = "roku-feed.json"
	EnhancedFeedName  = "roku-feed-enhanced.json"
	PublisherFeedName = "roku-direct-publisher-feed.json"
	InfoName          = "roku-enhancement-info.json"
)

// DeploymentInfo is the operator-facing companion document written next
// to the enhanced feed: where everything lives and how complete the
// configuration is.
type DeploymentInfo struct {
	Generated     string            `json:"generated"`
	Files         map[string]string `json:"files"`
	FeedURLs      map[string]string `json:"feedUrls"`
	Summary       ContentSummary    `json:"contentSummary"`
	Configuration DeployConfig      `json:"configuration"`
}

type DeployConfig struct {
	LivestreamConfigured        bool `json:"livestreamConfigured"`
	AdditionalContentConfigured int  `json:"additionalContentConfigured"`
}

// BuildDeploymentInfo summarizes one enhancement run for operators.
func BuildDeploymentInfo(cfg *config.Config, summary ContentSummary, now time.Time) DeploymentInfo {
	base := strings.TrimRight(cfg.BaseURL, "/")
	configured := 0
	for _, src := range cfg.AdditionalContent {
		if src.Configured() {
			configured++
		}
	}
	return DeploymentInfo{
		Generated: now.UTC().Format(time.RFC3339),
		Files: map[string]string{
			"base":            BaseFeedName,
			"enhanced":        EnhancedFeedName,
			"directPublisher": PublisherFeedName,
		},
		FeedURLs: map[string]string{
			"original":        base + "/" + BaseFeedName,
			"enhanced":        base + "/" + EnhancedFeedName,
			"directPublisher": base + "/" + PublisherFeedName,
		},
		Summary: summary,
		Configuration: DeployConfig{
			LivestreamConfigured:        cfg.Livestream.URL != "" && !strings.Contains(cfg.Livestream.URL, "YOUR_"),
			AdditionalContentConfigured: configured,
		},
	}
}
