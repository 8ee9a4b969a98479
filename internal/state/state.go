package state

import (
	"context"
	"errors"
	"fmt"

	"ainews/internal/config"
	"ainews/internal/core"
	"ainews/internal/storage"
)

var ErrArchiveDisabled = errors.New("build archive is disabled (storage.enabled = false)")

// State is everything a process needs after loading: the config it was
// built from, the bot driving the pipeline and the optional archive.
type State struct {
	Config   *config.Config
	Pipeline *core.Pipeline
	Bot      *core.Bot
	Storage  storage.StorageInterface
}

func NewState(cfg *config.Config, pipeline *core.Pipeline, store storage.StorageInterface) *State {
	return &State{
		Config:   cfg,
		Pipeline: pipeline,
		Storage:  store,
	}
}

func (s *State) Close(ctx context.Context) error {
	if s.Storage == nil {
		return nil
	}
	if err := s.Storage.Close(ctx); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

func (s *State) RecentBuilds(ctx context.Context, limit int) ([]storage.BuildRecord, error) {
	if s.Storage == nil {
		return nil, ErrArchiveDisabled
	}
	builds, err := s.Storage.Builds().ListRecentBuilds(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	return builds, nil
}
