package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ainews/internal/config"
	"ainews/internal/core"
	"ainews/internal/render"
	"ainews/internal/sources"
	"ainews/internal/state"
	"ainews/internal/storage"
	_ "ainews/internal/storage/sqlite"
	"ainews/internal/targets"
)

type Loader struct {
	config *config.Config
}

func NewLoader(cfg *config.Config) *Loader {
	return &Loader{
		config: cfg,
	}
}

func (l *Loader) Initialize(ctx context.Context) (*state.State, error) {
	var store storage.StorageInterface
	if l.config.Storage.Enabled {
		s, err := storage.New(ctx, l.config.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store = s
		slog.Info("Build archive enabled", "type", l.config.Storage.Type, "path", l.config.Storage.Path)
	}

	pipeline, err := l.buildPipeline(store)
	if err != nil {
		if store != nil {
			_ = store.Close(ctx)
		}
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	appState := state.NewState(l.config, pipeline, store)
	appState.Bot = core.NewBot(core.BotConfig{
		Name:     l.config.Bot.Name,
		Pipeline: pipeline,
		Interval: l.config.BotInterval(),
		RunOnce:  l.config.Bot.RunOnce,
		ShutdownFn: func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return appState.Close(shutdownCtx)
		},
	})

	return appState, nil
}

func (l *Loader) buildPipeline(store storage.StorageInterface) (*core.Pipeline, error) {
	renderer, err := render.New(l.markup(), l.config.Site.VideoSearchURL)
	if err != nil {
		return nil, err
	}

	fetcher := sources.NewRSSFetcher(sources.Config{
		Timeout:   l.config.FetchTimeout(),
		UserAgent: l.config.Fetch.UserAgent,
	})

	pipeline := core.NewPipeline(core.PipelineConfig{
		Sources:                l.config.FeedSources(),
		ReleaseNotes:           l.config.ReleaseNoteEntries(),
		Videos:                 l.config.VideoSuggestions(),
		Insights:               l.config.InsightEntries(),
		MaxHighlights:          l.config.Limits.MaxHighlights,
		MaxLinks:               l.config.Limits.MaxLinks,
		TemplatePath:           l.config.Site.Template,
		OutputPath:             l.config.Site.Output,
		DateFormat:             l.config.Site.DateFormat,
		Location:               l.config.Location(),
		FailWhenAllSourcesFail: l.config.Build.FailWhenAllSourcesFail,
	}, fetcher, renderer)

	for _, target := range l.createTargets() {
		pipeline.AddTarget(target)
	}

	if store != nil {
		pipeline.WithArchive(store.Builds(), l.config.StorageRetention())
	}

	return pipeline, nil
}

func (l *Loader) markup() render.Markup {
	m := l.config.Markup
	return render.Markup{
		Highlight:   m.Highlight,
		Link:        m.Link,
		ReleaseNote: m.ReleaseNote,
		Video:       m.Video,
		Insight:     m.Insight,
		Fallback:    m.Fallback,
	}
}

func (l *Loader) createTargets() []core.Target {
	result := []core.Target{targets.NewPageTarget("page", l.config.Site.Output)}

	s := l.config.Syndication
	if s.Enabled {
		result = append(result, targets.NewSyndicationTarget("syndication", targets.SyndicationConfig{
			Path:        s.Output,
			Format:      s.Format,
			Title:       s.Title,
			Link:        s.Link,
			Description: s.Description,
			Author:      s.Author,
		}))
	}

	return result
}

// LoadConfig reads the config at path. A missing file yields the built-in
// defaults so the tool works without any configuration.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func LoadAndBuild(ctx context.Context, configPath string) (*state.State, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	loader := NewLoader(cfg)
	return loader.Initialize(ctx)
}
