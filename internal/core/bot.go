package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ainews/internal/types"
)

type Bot struct {
	name       string
	pipeline   *Pipeline
	interval   time.Duration
	runOnce    bool
	mu         sync.RWMutex
	running    bool
	stopCh     chan struct{}
	stopOnce   sync.Once
	lastReport *types.BuildReport
	shutdownFn func() error
}

type BotConfig struct {
	Name       string
	Pipeline   *Pipeline
	Interval   time.Duration
	RunOnce    bool
	ShutdownFn func() error
}

func NewBot(config BotConfig) *Bot {
	if config.Interval <= 0 {
		config.RunOnce = true
	}

	return &Bot{
		name:       config.Name,
		pipeline:   config.Pipeline,
		interval:   config.Interval,
		runOnce:    config.RunOnce,
		running:    false,
		stopCh:     make(chan struct{}),
		shutdownFn: config.ShutdownFn,
	}
}

func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bot already running")
	}
	b.running = true
	b.mu.Unlock()

	if b.runOnce {
		return b.runOnceMode(ctx)
	}

	return b.runContinuousMode(ctx)
}

func (b *Bot) runOnceMode(ctx context.Context) error {
	defer b.markStopped()
	return b.executeRun(ctx, 0)
}

func (b *Bot) runContinuousMode(ctx context.Context) error {
	defer b.markStopped()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	if err := b.executeRun(ctx, b.runTimeout()); err != nil {
		b.reportError(err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.stopCh:
			return nil
		case <-ticker.C:
			if err := b.executeRun(ctx, b.runTimeout()); err != nil {
				b.reportError(err)
			}
		}
	}
}

// runTimeout keeps a build from running into the next tick.
func (b *Bot) runTimeout() time.Duration {
	if b.interval > 20*time.Second {
		return b.interval - 10*time.Second
	}
	return b.interval
}

func (b *Bot) executeRun(ctx context.Context, timeout time.Duration) error {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := b.pipeline.Run(runCtx)
	if report != nil {
		b.mu.Lock()
		b.lastReport = report
		b.mu.Unlock()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	return nil
}

func (b *Bot) reportError(err error) {
	slog.Error("Build failed", "bot", b.name, "error", err)
}

func (b *Bot) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() { close(b.stopCh) })

	if b.shutdownFn != nil {
		if err := b.shutdownFn(); err != nil {
			return fmt.Errorf("custom shutdown failed: %w", err)
		}
	}

	return nil
}

func (b *Bot) Name() string {
	return b.name
}

func (b *Bot) LastReport() *types.BuildReport {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastReport
}

func (b *Bot) markStopped() {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
}
