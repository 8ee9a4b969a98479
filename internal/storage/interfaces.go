package storage

import (
	"context"
	"time"
)

type StorageInterface interface {
	Builds() BuildStore
	Close(ctx context.Context) error
}

type SourceRecord struct {
	Source     string
	URL        string
	Status     string
	Items      int
	Error      string
	DurationMS int64
}

type BuildRecord struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	OutputPath   string
	ContentHash  string
	Highlights   int
	Links        int
	UsedFallback bool
	Sources      []SourceRecord
}

// BuildStore is an append-only audit log of builds. Nothing read from it
// feeds back into rendering.
type BuildStore interface {
	RecordBuild(ctx context.Context, record BuildRecord) error
	ListRecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}
