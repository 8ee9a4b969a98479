package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"ainews/internal/loader"
	"ainews/internal/state"
	"ainews/internal/storage"
)

var (
	configPath = flag.String("config", "ainews.toml", "Path to configuration file")
	logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	once       = flag.Bool("once", false, "Build the page once and exit, ignoring bot.interval")
	listBuilds = flag.Int("list-builds", 0, "Print the N most recent archived builds and exit")
)

func main() {
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.Info("Loading configuration", "path", *configPath)

	cfg, err := loader.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *once {
		cfg.Bot.RunOnce = true
	}

	st, err := loader.NewLoader(cfg).Initialize(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	if *listBuilds > 0 {
		defer st.Close(context.Background())
		return printBuilds(ctx, os.Stdout, st, *listBuilds)
	}

	bot := st.Bot
	slog.Info("Starting bot", "name", bot.Name(), "run_once", cfg.Bot.RunOnce)

	errChan := make(chan error, 1)
	go func() {
		if err := bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
		close(errChan)
	}()

	var runErr error
	select {
	case runErr = <-errChan:
	case <-ctx.Done():
		slog.Info("Initiating shutdown, waiting for the current build to stop")
		runErr = <-errChan
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := bot.Stop(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown error: %w", err))
	}
	if runErr != nil {
		return runErr
	}

	if report := bot.LastReport(); report != nil {
		slog.Info("Page written",
			"path", report.OutputPath,
			"highlights", report.Highlights,
			"failed_sources", report.FailedSources())
	}
	slog.Info("Bot stopped successfully")
	return nil
}

func printBuilds(ctx context.Context, w io.Writer, st *state.State, limit int) error {
	builds, err := st.RecentBuilds(ctx, limit)
	if err != nil {
		return err
	}
	return writeBuilds(w, builds)
}

func writeBuilds(w io.Writer, builds []storage.BuildRecord) error {
	if len(builds) == 0 {
		_, err := fmt.Fprintln(w, "no builds archived")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, b := range builds {
		fmt.Fprintf(tw, "%s\t%s\thighlights=%d\tlinks=%d\tfallback=%t\t%s\n",
			b.StartedAt.Format(time.RFC3339), b.ID, b.Highlights, b.Links, b.UsedFallback, b.OutputPath)
		for _, s := range b.Sources {
			line := fmt.Sprintf("  %s\t%s\titems=%d", s.Source, s.Status, s.Items)
			if s.Error != "" {
				line += "\t" + s.Error
			}
			fmt.Fprintln(tw, line)
		}
	}
	return tw.Flush()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
