package types

import (
	"time"
)

type FeedSource struct {
	Name     string
	URL      string
	Enabled  bool
	MaxItems int
}

type FeedItem struct {
	Source    string
	Title     string
	Link      string
	Summary   string
	Published time.Time
}

type ReleaseNote struct {
	Date       string
	Tool       string
	Change     string
	SourceLink string
}

type VideoSuggestion struct {
	Channel string
	Title   string
}

type Insight struct {
	Text string
}

type FetchStatus string

const (
	FetchOK     FetchStatus = "ok"
	FetchEmpty  FetchStatus = "empty"
	FetchFailed FetchStatus = "failed"
)

// FetchResult keeps what the rendered page cannot show: whether a source
// produced nothing because it was empty or because the fetch failed.
type FetchResult struct {
	Source   string
	URL      string
	Status   FetchStatus
	Items    []FeedItem
	Err      error
	Duration time.Duration
}

func (r FetchResult) Failed() bool {
	return r.Status == FetchFailed
}

type BuildReport struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Results      []FetchResult
	Highlights   int
	Links        int
	UsedFallback bool
	ContentHash  string
	OutputPath   string
}

func (b *BuildReport) FailedSources() int {
	failed := 0
	for _, r := range b.Results {
		if r.Failed() {
			failed++
		}
	}
	return failed
}

func (b *BuildReport) AllSourcesFailed() bool {
	return len(b.Results) > 0 && b.FailedSources() == len(b.Results)
}
