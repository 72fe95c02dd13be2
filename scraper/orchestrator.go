package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/feeds"
	"github.com/use-agent/harvest/models"
)

// OpenDriver opens one browser session on the given URL. The orchestrator
// owns the returned driver for exactly one run and closes it on every
// exit path.
type OpenDriver func(ctx context.Context, targetURL string) (Driver, error)

// HarvestStatic walks a statically paginated feed from page 1 upward,
// fetching and extracting each page. The sole termination signal is the
// first page yielding zero records; maxPages bounds worst-case work
// against a misbehaving server regardless.
//
// A transport failure on page N is fatal for the run but preserves the
// records of pages 1..N-1 in the report.
func HarvestStatic(ctx context.Context, fetcher PageFetcher, feed feeds.Feed, base string, maxPages int) (rep models.Report) {
	rep = models.Report{Feed: feed.Name, StartedAt: time.Now().UTC()}
	defer func() { rep.FinishedAt = time.Now().UTC() }()

	for page := 1; page <= maxPages; page++ {
		select {
		case <-ctx.Done():
			rep.Err = models.NewScrapeError(models.ErrCodeTimeout, "run canceled", ctx.Err())
			return rep
		default:
		}

		pageURL := feed.PageURL(base, page)
		slog.Info("fetching static page", "feed", feed.Name, "page", page, "url", pageURL)

		doc, err := fetcher.Fetch(ctx, pageURL)
		if err != nil {
			rep.Err = err
			return rep
		}

		recs, err := extract.Records(doc, feed.Spec, pageURL, time.Now().UTC())
		if err != nil {
			rep.Err = err
			return rep
		}
		if len(recs) == 0 {
			slog.Info("empty page, stopping pagination", "feed", feed.Name, "page", page)
			break
		}

		extract.ResolveURLFields(recs, feed.Spec, base)
		rep.Records = append(rep.Records, recs...)
	}
	return rep
}

// HarvestDynamic drives a dynamic feed to completion: open a session,
// run the termination strategy until Done or a fatal error, then extract
// once from the final snapshot. Intermediate snapshots are never
// extracted; a single pass over the fully grown document keeps record
// identity trivial and needs no duplicate merging.
//
// The session is released on every exit path: success, fatal error, and
// cancellation between cycles. maxRecords > 0 truncates the final
// extraction, preserving document order.
func HarvestDynamic(ctx context.Context, open OpenDriver, feed feeds.Feed, strat Strategy, base string, maxRecords int) (rep models.Report) {
	rep = models.Report{Feed: feed.Name, StartedAt: time.Now().UTC()}
	defer func() { rep.FinishedAt = time.Now().UTC() }()

	targetURL := feed.URL(base)
	slog.Info("opening dynamic session", "feed", feed.Name, "url", targetURL)

	d, err := open(ctx, targetURL)
	if err != nil {
		rep.Err = err
		return rep
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			slog.Warn("session close failed", "feed", feed.Name, "error", cerr)
		}
	}()

	for cycle := 1; ; cycle++ {
		select {
		case <-ctx.Done():
			rep.Err = models.NewScrapeError(models.ErrCodeTimeout, "run canceled", ctx.Err())
			return rep
		default:
		}

		decision, err := strat.Step(ctx, d)
		if err != nil {
			rep.Err = err
			return rep
		}
		if decision == Done {
			slog.Info("feed fully loaded", "feed", feed.Name, "cycles", cycle)
			break
		}
	}

	doc, err := d.Snapshot(ctx)
	if err != nil {
		rep.Err = err
		return rep
	}
	recs, err := extract.Records(doc, feed.Spec, d.URL(), time.Now().UTC())
	if err != nil {
		rep.Err = err
		return rep
	}
	extract.ResolveURLFields(recs, feed.Spec, base)

	if maxRecords > 0 && len(recs) > maxRecords {
		recs = recs[:maxRecords]
	}
	rep.Records = recs
	return rep
}
