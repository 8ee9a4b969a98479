package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ainews/internal/page"
	"ainews/internal/render"
	"ainews/internal/storage"
	"ainews/internal/types"
	"ainews/internal/utils"
	"ainews/internal/utils/hash"

	"github.com/google/uuid"
)

type PipelineConfig struct {
	Sources                []types.FeedSource
	ReleaseNotes           []types.ReleaseNote
	Videos                 []types.VideoSuggestion
	Insights               []types.Insight
	MaxHighlights          int
	MaxLinks               int
	TemplatePath           string
	OutputPath             string
	DateFormat             string
	Location               *time.Location
	FailWhenAllSourcesFail bool
}

type Pipeline struct {
	config    PipelineConfig
	fetcher   Fetcher
	renderer  *render.Renderer
	targets   []Target
	builds    storage.BuildStore
	retention time.Duration
	now       func() time.Time
	mu        sync.Mutex
	running   bool
}

func NewPipeline(config PipelineConfig, fetcher Fetcher, renderer *render.Renderer) *Pipeline {
	if config.DateFormat == "" {
		config.DateFormat = "2006-01-02"
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	return &Pipeline{
		config:   config,
		fetcher:  fetcher,
		renderer: renderer,
		targets:  make([]Target, 0),
		now:      time.Now,
	}
}

func (p *Pipeline) AddTarget(target Target) *Pipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets = append(p.targets, target)
	return p
}

// WithArchive records every build in builds and prunes entries older than
// retention when retention is positive.
func (p *Pipeline) WithArchive(builds storage.BuildStore, retention time.Duration) *Pipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = builds
	p.retention = retention
	return p
}

func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
	return p
}

// Run performs one build: fetch every enabled source in order, render,
// assemble and publish. A missing template aborts before anything is
// fetched or written.
func (p *Pipeline) Run(ctx context.Context) (*types.BuildReport, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, fmt.Errorf("pipeline already running")
	}
	p.running = true
	targets := append([]Target(nil), p.targets...)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	report := &types.BuildReport{
		ID:         uuid.NewString(),
		StartedAt:  p.now(),
		OutputPath: p.config.OutputPath,
	}

	tmpl, err := page.ReadTemplate(p.config.TemplatePath)
	if err != nil {
		return nil, err
	}

	slog.Info("Starting build", "build_id", report.ID, "sources", len(p.config.Sources))

	items := p.fetchAll(ctx, report)
	if err := ctx.Err(); err != nil {
		slog.Warn("Build interrupted, nothing published", "build_id", report.ID, "error", err)
		return nil, fmt.Errorf("build interrupted: %w", err)
	}

	fragments, shown := p.renderFragments(items, report)

	generatedAt := p.now().In(p.config.Location)
	fragments.Add(page.Date, generatedAt.Format(p.config.DateFormat))
	fragments.Add(page.GeneratedAt, generatedAt.Format(time.RFC3339))

	html := page.Assemble(tmpl, fragments)
	if leftover := page.Unreplaced(html); len(leftover) > 0 {
		slog.Warn("Template has placeholders that were not replaced", "tokens", leftover)
	}
	report.ContentHash = hash.FromString(html).ComputeHash()

	out := &Output{
		Page:        html,
		Highlights:  shown,
		GeneratedAt: generatedAt,
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build interrupted: %w", err)
	}

	for _, target := range targets {
		slog.Debug("Publishing build to target", "build_id", report.ID, "target", target.Name())
		if err := target.Publish(ctx, out); err != nil {
			return nil, fmt.Errorf("target %s: %w", target.Name(), err)
		}
	}

	report.FinishedAt = p.now()
	p.archive(ctx, report)

	slog.Info("Build completed",
		"build_id", report.ID,
		"highlights", report.Highlights,
		"links", report.Links,
		"fallback", report.UsedFallback,
		"failed_sources", report.FailedSources(),
		"duration", report.FinishedAt.Sub(report.StartedAt))

	if p.config.FailWhenAllSourcesFail && report.AllSourcesFailed() {
		return report, ErrAllSourcesFailed
	}

	return report, nil
}

func (p *Pipeline) fetchAll(ctx context.Context, report *types.BuildReport) []types.FeedItem {
	var items []types.FeedItem

	for _, source := range p.config.Sources {
		if !source.Enabled {
			slog.Debug("Skipping disabled source", "source", source.Name)
			continue
		}

		result := p.fetcher.Fetch(ctx, source, source.MaxItems)
		if len(result.Items) > source.MaxItems {
			result.Items = utils.Take(result.Items, source.MaxItems)
		}
		report.Results = append(report.Results, result)

		slog.Info("Source fetched", "source", source.Name, "status", result.Status, "count", len(result.Items))
		items = append(items, result.Items...)
	}

	return items
}

// renderFragments also returns the items behind the highlight fragments,
// so targets see exactly what the page lists.
func (p *Pipeline) renderFragments(items []types.FeedItem, report *types.BuildReport) (page.Fragments, []types.FeedItem) {
	fragments := page.Fragments{}
	nonEmpty := func(s string) bool { return s != "" }

	highlights := make([]string, 0, len(items))
	shown := make([]types.FeedItem, 0, len(items))
	links := make([]string, 0, len(items))
	for _, item := range items {
		if fragment := p.renderer.Highlight(item); fragment != "" {
			highlights = append(highlights, fragment)
			shown = append(shown, item)
		}
		links = append(links, p.renderer.Link(item))
	}
	highlights = utils.Take(highlights, p.config.MaxHighlights)
	shown = utils.Take(shown, p.config.MaxHighlights)
	links = utils.Take(utils.FilterArray(links, nonEmpty), p.config.MaxLinks)

	if len(highlights) == 0 {
		highlights = []string{p.renderer.Fallback()}
		report.UsedFallback = true
	} else {
		report.Highlights = len(highlights)
	}
	report.Links = len(links)

	fragments.Add(page.Highlights, highlights...)
	fragments.Add(page.Links, links...)

	fragments[page.ReleaseNotes] = []string{}
	for _, note := range p.config.ReleaseNotes {
		fragments.Add(page.ReleaseNotes, p.renderer.ReleaseNote(note))
	}

	fragments[page.Videos] = []string{}
	for _, video := range p.config.Videos {
		fragments.Add(page.Videos, p.renderer.Video(video))
	}

	fragments[page.WhatItMeans] = []string{}
	for _, insight := range p.config.Insights {
		fragments.Add(page.WhatItMeans, p.renderer.Insight(insight))
	}

	return fragments, shown
}

func (p *Pipeline) archive(ctx context.Context, report *types.BuildReport) {
	if p.builds == nil {
		return
	}

	record := storage.BuildRecord{
		ID:           report.ID,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		OutputPath:   report.OutputPath,
		ContentHash:  report.ContentHash,
		Highlights:   report.Highlights,
		Links:        report.Links,
		UsedFallback: report.UsedFallback,
	}
	for _, r := range report.Results {
		src := storage.SourceRecord{
			Source:     r.Source,
			URL:        r.URL,
			Status:     string(r.Status),
			Items:      len(r.Items),
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			src.Error = r.Err.Error()
		}
		record.Sources = append(record.Sources, src)
	}

	if err := p.builds.RecordBuild(ctx, record); err != nil {
		slog.Error("Error archiving build", "build_id", report.ID, "error", err)
		return
	}

	if p.retention > 0 {
		if _, err := p.builds.DeleteOlderThan(ctx, p.retention); err != nil {
			slog.Error("Error pruning build archive", "error", err)
		}
	}
}
