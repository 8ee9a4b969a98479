package core

import (
	"context"
	"errors"
	"time"

	"ainews/internal/types"
)

var ErrAllSourcesFailed = errors.New("every enabled source failed to fetch")

type Fetcher interface {
	Fetch(ctx context.Context, source types.FeedSource, limit int) types.FetchResult
}

// Output is what a build hands to its targets.
type Output struct {
	Page        string
	Highlights  []types.FeedItem
	GeneratedAt time.Time
}

type Target interface {
	Name() string
	Publish(ctx context.Context, out *Output) error
}
