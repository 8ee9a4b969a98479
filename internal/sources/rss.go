package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ainews/internal/types"
	"ainews/internal/utils"

	"github.com/mmcdole/gofeed"
)

const (
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "ainews/1.0 (+static digest builder)"
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

// RSSFetcher retrieves RSS, Atom and JSON feeds. It never returns an error:
// every failure is folded into a FetchResult with status failed and no items.
type RSSFetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

func NewRSSFetcher(config Config) *RSSFetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Client == nil {
		config.Client = &http.Client{Timeout: config.Timeout}
	}

	parser := gofeed.NewParser()
	parser.UserAgent = config.UserAgent
	parser.Client = config.Client

	return &RSSFetcher{
		parser:  parser,
		timeout: config.Timeout,
	}
}

// Items is the plain contract: at most limit items in feed order, empty on
// any failure.
func (r *RSSFetcher) Items(ctx context.Context, url string, limit int) []types.FeedItem {
	return r.Fetch(ctx, types.FeedSource{Name: url, URL: url}, limit).Items
}

func (r *RSSFetcher) Fetch(ctx context.Context, source types.FeedSource, limit int) (result types.FetchResult) {
	started := time.Now()
	result = types.FetchResult{
		Source: source.Name,
		URL:    source.URL,
		Items:  []types.FeedItem{},
	}

	defer func() {
		if rec := recover(); rec != nil {
			result.Status = types.FetchFailed
			result.Items = []types.FeedItem{}
			result.Err = types.NewFetchError(source.Name, source.URL, fmt.Errorf("parser panic: %v", rec))
		}
		result.Duration = time.Since(started)
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	slog.Debug("RSS fetcher fetching feed", "source", source.Name, "feed_url", source.URL, "limit", limit)
	feed, err := r.parser.ParseURLWithContext(source.URL, fetchCtx)
	if err != nil {
		slog.Warn("RSS fetcher failed, treating source as empty", "source", source.Name, "feed_url", source.URL, "error", err)
		result.Status = types.FetchFailed
		result.Err = types.NewFetchError(source.Name, source.URL, err)
		return result
	}

	slog.Debug("RSS fetcher retrieved items", "source", source.Name, "count", len(feed.Items))

	items := make([]types.FeedItem, 0, len(feed.Items))
	for _, feedItem := range feed.Items {
		if feedItem == nil {
			continue
		}
		item, ok := convertToItem(source.Name, feedItem)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	result.Items = utils.Take(items, limit)
	if len(result.Items) == 0 {
		result.Status = types.FetchEmpty
	} else {
		result.Status = types.FetchOK
	}

	return result
}

func convertToItem(sourceName string, feedItem *gofeed.Item) (types.FeedItem, bool) {
	title := utils.Clean(feedItem.Title)
	link := strings.TrimSpace(feedItem.Link)
	if title == "" || link == "" {
		return types.FeedItem{}, false
	}

	description := feedItem.Description
	if description == "" && feedItem.Content != "" {
		description = feedItem.Content
	}

	var published time.Time
	if feedItem.PublishedParsed != nil {
		published = *feedItem.PublishedParsed
	} else if feedItem.UpdatedParsed != nil {
		published = *feedItem.UpdatedParsed
	}

	return types.FeedItem{
		Source:    sourceName,
		Title:     title,
		Link:      link,
		Summary:   utils.StripHTML(description),
		Published: published,
	}, true
}
