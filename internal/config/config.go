package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Bot          BotConfig           `toml:"bot"`
	Site         SiteConfig          `toml:"site"`
	Fetch        FetchConfig         `toml:"fetch"`
	Limits       LimitsConfig        `toml:"limits"`
	Markup       MarkupConfig        `toml:"markup"`
	Storage      StorageConfig       `toml:"storage"`
	Syndication  SyndicationConfig   `toml:"syndication"`
	Build        BuildConfig         `toml:"build"`
	Sources      []SourceConfig      `toml:"sources"`
	ReleaseNotes []ReleaseNoteConfig `toml:"release_notes"`
	Videos       []VideoConfig       `toml:"videos"`
	Insights     []InsightConfig     `toml:"insights"`
}

type BotConfig struct {
	Name     string `toml:"name"`
	Interval string `toml:"interval"`
	RunOnce  bool   `toml:"run_once"`
}

type SiteConfig struct {
	Template       string `toml:"template"`
	Output         string `toml:"output"`
	DateFormat     string `toml:"date_format"`
	TimeZone       string `toml:"time_zone"`
	VideoSearchURL string `toml:"video_search_url"`

	location *time.Location
}

type FetchConfig struct {
	Timeout        string `toml:"timeout"`
	UserAgent      string `toml:"user_agent"`
	PerSourceLimit int    `toml:"per_source_limit"`
}

type LimitsConfig struct {
	MaxHighlights int `toml:"max_highlights"`
	MaxLinks      int `toml:"max_links"`
}

type MarkupConfig struct {
	Highlight   string `toml:"highlight"`
	Link        string `toml:"link"`
	ReleaseNote string `toml:"release_note"`
	Video       string `toml:"video"`
	Insight     string `toml:"insight"`
	Fallback    string `toml:"fallback"`
}

type StorageConfig struct {
	Enabled   bool   `toml:"enabled"`
	Type      string `toml:"type"`
	Path      string `toml:"path"`
	Retention string `toml:"retention"`
}

type SyndicationConfig struct {
	Enabled     bool   `toml:"enabled"`
	Output      string `toml:"output"`
	Format      string `toml:"format"`
	Title       string `toml:"title"`
	Link        string `toml:"link"`
	Description string `toml:"description"`
	Author      string `toml:"author"`
}

type BuildConfig struct {
	FailWhenAllSourcesFail bool `toml:"fail_when_all_sources_fail"`
}

type SourceConfig struct {
	Name     string `toml:"name"`
	URL      string `toml:"url"`
	Enabled  *bool  `toml:"enabled"`
	MaxItems int    `toml:"max_items"`
}

type ReleaseNoteConfig struct {
	Date       string `toml:"date"`
	Tool       string `toml:"tool"`
	Change     string `toml:"change"`
	SourceLink string `toml:"source_link"`
}

type VideoConfig struct {
	Channel string `toml:"channel"`
	Title   string `toml:"title"`
}

type InsightConfig struct {
	Text string `toml:"text"`
}

func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var config Config
	if err := validateConfig(&config); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return &config
}

func validateConfig(config *Config) error {
	if config.Bot.Name == "" {
		config.Bot.Name = "ainews"
	}

	if config.Bot.Interval == "" {
		config.Bot.RunOnce = true
	} else if _, err := time.ParseDuration(config.Bot.Interval); err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}

	if config.Site.Template == "" {
		config.Site.Template = "template.html"
	}
	if config.Site.Output == "" {
		config.Site.Output = "index.html"
	}
	if config.Site.DateFormat == "" {
		config.Site.DateFormat = "2006-01-02"
	}
	config.Site.location = time.Local
	if config.Site.TimeZone != "" {
		loc, err := time.LoadLocation(config.Site.TimeZone)
		if err != nil {
			return fmt.Errorf("invalid time_zone: %w", err)
		}
		config.Site.location = loc
	}

	if config.Fetch.Timeout == "" {
		config.Fetch.Timeout = "20s"
	}
	if d, err := time.ParseDuration(config.Fetch.Timeout); err != nil {
		return fmt.Errorf("invalid fetch timeout: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if config.Fetch.PerSourceLimit < 0 {
		return fmt.Errorf("per_source_limit must not be negative")
	}
	if config.Fetch.PerSourceLimit == 0 {
		config.Fetch.PerSourceLimit = 3
	}

	if config.Limits.MaxHighlights < 0 || config.Limits.MaxLinks < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if config.Limits.MaxHighlights == 0 {
		config.Limits.MaxHighlights = 12
	}
	if config.Limits.MaxLinks == 0 {
		config.Limits.MaxLinks = config.Limits.MaxHighlights
	}

	if config.Storage.Type == "" {
		config.Storage.Type = "sqlite"
	}
	if config.Storage.Path == "" {
		config.Storage.Path = "./ainews.db"
	}
	if config.Storage.Retention != "" {
		if _, err := time.ParseDuration(config.Storage.Retention); err != nil {
			return fmt.Errorf("invalid storage retention: %w", err)
		}
	}

	if err := validateSyndication(&config.Syndication); err != nil {
		return err
	}

	if len(config.Sources) == 0 {
		config.Sources = DefaultSources()
	}

	enabledSources := 0
	for i, src := range config.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if err := validateFeedURL(src.URL); err != nil {
			return fmt.Errorf("source %s: %w", src.Name, err)
		}
		if src.MaxItems < 0 {
			return fmt.Errorf("source %s: max_items must not be negative", src.Name)
		}
		if src.IsEnabled() {
			enabledSources++
		}
	}
	if enabledSources == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if config.ReleaseNotes == nil {
		config.ReleaseNotes = DefaultReleaseNotes()
	}
	if config.Videos == nil {
		config.Videos = DefaultVideos()
	}
	if config.Insights == nil {
		config.Insights = DefaultInsights()
	}

	return nil
}

func validateSyndication(s *SyndicationConfig) error {
	if s.Output == "" {
		s.Output = "feed.xml"
	}
	if s.Format == "" {
		s.Format = "rss"
	}
	switch s.Format {
	case "rss", "atom", "json":
	default:
		return fmt.Errorf("invalid syndication format: %s (must be rss, atom or json)", s.Format)
	}
	if s.Title == "" {
		s.Title = "AI news digest"
	}
	if s.Description == "" {
		s.Description = "Daily highlights from AI news sources"
	}
	return nil
}

func validateFeedURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be absolute http(s): %s", raw)
	}
	return nil
}

func ParseDuration(s string, defaultValue time.Duration) time.Duration {
	if s == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return defaultValue
}
