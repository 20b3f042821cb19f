// Package config loads process configuration from config.json plus
// FEEDGEN_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/heritagemedia/feedgen/internal/schedule"
)

// Config holds all configuration for one feedgen invocation. It is built
// once at startup and passed by value into the components that need it;
// nothing reads configuration globally after load.
type Config struct {
	// BaseURL is the public URL the generated files are served from.
	BaseURL string `mapstructure:"baseUrl"`
	// ProviderFeedURL is the upstream Roku-style catalog to ingest.
	ProviderFeedURL string `mapstructure:"providerFeedUrl"`
	OutputDir       string `mapstructure:"outputDir"`

	Podcast    Podcast  `mapstructure:"podcast"`
	Livestream Live     `mapstructure:"livestream"`
	// AdditionalContent is an ordered list: merge results keep this
	// declaration order for equal-priority items.
	AdditionalContent []Source `mapstructure:"additionalContent"`
	Outputs           Outputs  `mapstructure:"outputs"`
	Roku              Roku     `mapstructure:"roku"`
	Server            Server   `mapstructure:"server"`
	Logging           Logging  `mapstructure:"logging"`
}

// Podcast is the channel-level metadata for the syndication feed.
type Podcast struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Author      string `mapstructure:"author"`
	Email       string `mapstructure:"email"`
	Language    string `mapstructure:"language"`
	Category    string `mapstructure:"category"`
	Subcategory string `mapstructure:"subcategory"`
	Artwork     string `mapstructure:"artwork"`
	Website     string `mapstructure:"website"`
}

// Live configures the live broadcast window and stream URL.
type Live struct {
	Enabled  bool              `mapstructure:"enabled"`
	URL      string            `mapstructure:"url"`
	Timezone string            `mapstructure:"timezone"`
	Services schedule.Schedule `mapstructure:"services"`
}

// Source is one secondary content source merged into the enhanced feed.
type Source struct {
	Key         string `mapstructure:"key"`
	Enabled     bool   `mapstructure:"enabled"`
	URL         string `mapstructure:"url"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Priority    int    `mapstructure:"priority"`
}

// Configured reports whether the source has a usable fetch URL. Sources
// left at their placeholder value are skipped, not errors.
func (s Source) Configured() bool {
	return s.Enabled && s.URL != "" && !strings.Contains(s.URL, "YOUR_")
}

// Outputs toggles the individual generated files.
type Outputs struct {
	VideoPodcast Toggle `mapstructure:"videoPodcast"`
	Roku         Toggle `mapstructure:"roku"`
	PhoneTree    Toggle `mapstructure:"phoneTree"`
}

type Toggle struct {
	Enabled bool `mapstructure:"enabled"`
}

// Roku holds the enhanced-feed channel identity.
type Roku struct {
	ProviderName        string `mapstructure:"providerName"`
	EnhancedTitle       string `mapstructure:"enhancedTitle"`
	EnhancedDescription string `mapstructure:"enhancedDescription"`
}

// Server configures serve mode.
type Server struct {
	Listen string `mapstructure:"listen"`
}

type Logging struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Load reads config.json from dir (or the working directory when dir is
// empty) and applies FEEDGEN_ environment overrides. A missing config
// file is not an error; defaults and env vars still apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("FEEDGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		// AutomaticEnv alone does not surface keys absent from both
		// defaults and the file, so each overridable key binds explicitly
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	applyFallbacks(&cfg)
	return &cfg, nil
}

// envKeys lists every scalar key the environment may override, e.g.
// FEEDGEN_PROVIDERFEEDURL or FEEDGEN_PODCAST_TITLE. The list-valued keys
// (livestream.services, additionalContent) come from the file only.
var envKeys = []string{
	"baseUrl", "providerFeedUrl", "outputDir",
	"podcast.title", "podcast.description", "podcast.author", "podcast.email",
	"podcast.language", "podcast.category", "podcast.subcategory",
	"podcast.artwork", "podcast.website",
	"livestream.enabled", "livestream.url", "livestream.timezone",
	"outputs.videoPodcast.enabled", "outputs.roku.enabled", "outputs.phoneTree.enabled",
	"roku.providerName", "roku.enhancedTitle", "roku.enhancedDescription",
	"server.listen",
	"logging.level", "logging.console",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("baseUrl", "")
	v.SetDefault("outputDir", ".")
	v.SetDefault("podcast.language", "en")
	v.SetDefault("podcast.category", "Religion & Spirituality")
	v.SetDefault("livestream.enabled", true)
	v.SetDefault("livestream.timezone", "America/Chicago")
	v.SetDefault("outputs.videoPodcast.enabled", true)
	v.SetDefault("outputs.roku.enabled", true)
	v.SetDefault("outputs.phoneTree.enabled", true)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("logging.level", "info")
}

// applyFallbacks fills derived values the JSON may omit.
func applyFallbacks(cfg *Config) {
	if cfg.Roku.ProviderName == "" {
		cfg.Roku.ProviderName = cfg.Podcast.Author
	}
	if cfg.Roku.EnhancedTitle == "" && cfg.Podcast.Title != "" {
		cfg.Roku.EnhancedTitle = cfg.Podcast.Title + " - Complete Media Library"
	}
	for i := range cfg.AdditionalContent {
		if cfg.AdditionalContent[i].Priority == 0 {
			cfg.AdditionalContent[i].Priority = 100
		}
	}
	for i := range cfg.Livestream.Services {
		if cfg.Livestream.Services[i].Timezone == "" {
			cfg.Livestream.Services[i].Timezone = cfg.Livestream.Timezone
		}
	}
}

// ValidateForBuild checks the fields the build subcommand needs.
func (c *Config) ValidateForBuild() error {
	if c.ProviderFeedURL == "" {
		return fmt.Errorf("config: providerFeedUrl is required")
	}
	return nil
}
