package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/harvest/api"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/feeds"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/sink"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("harvest starting",
		"baseURL", cfg.Target.BaseURL,
		"maxPages", cfg.Target.MaxPages,
		"maxRecords", cfg.Target.MaxRecords,
		"settleWait", cfg.Target.SettleWait,
	)

	// ── 3. Cancellation: SIGINT/SIGTERM tears down live sessions ───
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 4. Run every feed sequentially ──────────────────────────────
	failed := 0
	for _, feed := range feeds.Defaults() {
		rep := runFeed(ctx, cfg, feed)

		path := sink.DatasetPath(cfg.Output.Dir, feed.Name)
		if err := sink.WriteCSV(path, feed.Spec, rep.Records); err != nil {
			slog.Error("failed to persist dataset", "feed", feed.Name, "error", err)
			failed++
			continue
		}

		if rep.Failed() {
			// Partial results are preserved and reported, not discarded.
			slog.Error("feed run failed",
				"feed", rep.Feed,
				"records", len(rep.Records),
				"errorKind", rep.ErrorKind(),
				"error", rep.Err,
			)
			failed++
		} else {
			slog.Info("feed run complete",
				"feed", rep.Feed,
				"records", len(rep.Records),
				"duration", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond),
				"dataset", path,
			)
		}
	}

	// ── 5. Optionally serve the datasets ────────────────────────────
	if cfg.Server.Enabled {
		serve(ctx, cfg)
		return
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// runFeed runs one feed under its own deadline and returns the report.
func runFeed(ctx context.Context, cfg *config.Config, feed feeds.Feed) models.Report {
	runCtx, cancel := context.WithTimeout(ctx, cfg.Target.RunTimeout)
	defer cancel()

	switch feed.Kind {
	case feeds.KindStatic:
		fetcher := scraper.NewFetcher(cfg.Browser.Proxy, cfg.Target.FetchDelay)
		return scraper.HarvestStatic(runCtx, fetcher, feed, cfg.Target.BaseURL, cfg.Target.MaxPages)

	case feeds.KindScroll:
		strat := &scraper.GrowthStrategy{StableReadings: cfg.Target.StableReadings}
		return scraper.HarvestDynamic(runCtx, openDriver(cfg), feed, strat, cfg.Target.BaseURL, cfg.Target.MaxRecords)

	case feeds.KindLoadMore:
		strat := &scraper.ControlStrategy{
			Selector:          feed.ControlSelector,
			ContainerSelector: feed.Spec.Container,
			MaxRecords:        cfg.Target.MaxRecords,
		}
		return scraper.HarvestDynamic(runCtx, openDriver(cfg), feed, strat, cfg.Target.BaseURL, cfg.Target.MaxRecords)

	default:
		return models.Report{
			Feed: feed.Name,
			Err:  models.NewScrapeError(models.ErrCodeSpec, "unknown feed kind "+string(feed.Kind), nil),
		}
	}
}

// openDriver wires the rod session into the orchestrator. One browser
// per run; the orchestrator guarantees Close on every exit path.
func openDriver(cfg *config.Config) scraper.OpenDriver {
	return func(ctx context.Context, targetURL string) (scraper.Driver, error) {
		return scraper.OpenSession(ctx, cfg.Browser, targetURL, cfg.Target.SettleWait)
	}
}

// serve runs the dataset API until the context is canceled.
func serve(ctx context.Context, cfg *config.Config) {
	router := api.NewRouter(cfg, feeds.Defaults(), time.Now())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("dataset API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
