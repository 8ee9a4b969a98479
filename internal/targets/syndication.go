package targets

import (
	"context"
	"fmt"
	"log/slog"

	"ainews/internal/core"

	"github.com/gorilla/feeds"
)

type SyndicationConfig struct {
	Path        string
	Format      string
	Title       string
	Link        string
	Description string
	Author      string
}

// SyndicationTarget republishes the build's highlights as an RSS, Atom or
// JSON feed next to the page.
type SyndicationTarget struct {
	name   string
	config SyndicationConfig
}

func NewSyndicationTarget(name string, config SyndicationConfig) *SyndicationTarget {
	if config.Format == "" {
		config.Format = "rss"
	}
	return &SyndicationTarget{name: name, config: config}
}

func (t *SyndicationTarget) Name() string {
	return t.name
}

func (t *SyndicationTarget) Publish(ctx context.Context, out *core.Output) error {
	feed := t.buildFeed(out)

	var (
		data string
		err  error
	)
	switch t.config.Format {
	case "rss":
		data, err = feed.ToRss()
	case "atom":
		data, err = feed.ToAtom()
	case "json":
		data, err = feed.ToJSON()
	default:
		return fmt.Errorf("unsupported syndication format: %s", t.config.Format)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s feed: %w", t.config.Format, err)
	}

	if err := writeFileAtomic(t.config.Path, []byte(data)); err != nil {
		return err
	}

	slog.Info("Syndication feed written", "target", t.name, "path", t.config.Path, "format", t.config.Format, "items", len(feed.Items))
	return nil
}

func (t *SyndicationTarget) buildFeed(out *core.Output) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       t.config.Title,
		Link:        &feeds.Link{Href: t.config.Link},
		Description: t.config.Description,
		Created:     out.GeneratedAt.UTC(),
		Updated:     out.GeneratedAt.UTC(),
		Items:       make([]*feeds.Item, 0, len(out.Highlights)),
	}
	if t.config.Author != "" {
		feed.Author = &feeds.Author{Name: t.config.Author}
	}

	for _, item := range out.Highlights {
		created := item.Published
		if created.IsZero() {
			created = out.GeneratedAt
		}

		feed.Items = append(feed.Items, &feeds.Item{
			Id:          item.Link,
			Title:       item.Title,
			Link:        &feeds.Link{Href: item.Link},
			Description: item.Summary,
			Author:      &feeds.Author{Name: item.Source},
			Created:     created.UTC(),
		})
	}

	return feed
}
