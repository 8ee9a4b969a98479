package config

import (
	"time"

	"ainews/internal/types"
)

func (c *Config) FeedSources() []types.FeedSource {
	sources := make([]types.FeedSource, 0, len(c.Sources))
	for _, src := range c.Sources {
		maxItems := src.MaxItems
		if maxItems == 0 {
			maxItems = c.Fetch.PerSourceLimit
		}
		sources = append(sources, types.FeedSource{
			Name:     src.Name,
			URL:      src.URL,
			Enabled:  src.IsEnabled(),
			MaxItems: maxItems,
		})
	}
	return sources
}

func (c *Config) ReleaseNoteEntries() []types.ReleaseNote {
	notes := make([]types.ReleaseNote, 0, len(c.ReleaseNotes))
	for _, n := range c.ReleaseNotes {
		notes = append(notes, types.ReleaseNote{
			Date:       n.Date,
			Tool:       n.Tool,
			Change:     n.Change,
			SourceLink: n.SourceLink,
		})
	}
	return notes
}

func (c *Config) VideoSuggestions() []types.VideoSuggestion {
	videos := make([]types.VideoSuggestion, 0, len(c.Videos))
	for _, v := range c.Videos {
		videos = append(videos, types.VideoSuggestion{Channel: v.Channel, Title: v.Title})
	}
	return videos
}

func (c *Config) InsightEntries() []types.Insight {
	insights := make([]types.Insight, 0, len(c.Insights))
	for _, i := range c.Insights {
		insights = append(insights, types.Insight{Text: i.Text})
	}
	return insights
}

func (c *Config) FetchTimeout() time.Duration {
	return ParseDuration(c.Fetch.Timeout, 20*time.Second)
}

func (c *Config) BotInterval() time.Duration {
	return ParseDuration(c.Bot.Interval, 0)
}

func (c *Config) StorageRetention() time.Duration {
	return ParseDuration(c.Storage.Retention, 0)
}

// Location returns the zone resolved from site.time_zone on load.
func (c *Config) Location() *time.Location {
	if c.Site.location == nil {
		return time.Local
	}
	return c.Site.location
}
