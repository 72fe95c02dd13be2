package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/harvest/models"
)

// fakeControl is the opaque token the fake driver hands out.
type fakeControl struct{ visible bool }

// fakeDriver scripts driver behavior per call and records every action,
// so strategy and orchestrator behavior can be asserted without a
// browser.
type fakeDriver struct {
	// measure returns the growth signal for the n-th MeasureGrowth call
	// (1-based). Defaults to a constant.
	measure func(call int) models.GrowthSignal

	// find returns the control for the n-th FindControl call (1-based).
	// nil means NotFound. Defaults to NotFound.
	find func(call int) Control

	// click returns the error for the n-th Click call (1-based).
	// Defaults to success.
	click func(call int) error

	// count is the CountElements result.
	count int

	// html is the Snapshot document.
	html string

	snapshotErr error

	measureCalls int
	scrolls      int
	settles      int
	findCalls    int
	clicks       int
	counts       int
	snapshots    int
	closes       int
}

func (f *fakeDriver) Snapshot(ctx context.Context) (*goquery.Document, error) {
	f.snapshots++
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return goquery.NewDocumentFromReader(strings.NewReader(f.html))
}

func (f *fakeDriver) ScrollToBottom(ctx context.Context) error {
	f.scrolls++
	return nil
}

func (f *fakeDriver) MeasureGrowth(ctx context.Context) (models.GrowthSignal, error) {
	f.measureCalls++
	if f.measure == nil {
		return 1000, nil
	}
	return f.measure(f.measureCalls), nil
}

func (f *fakeDriver) FindControl(ctx context.Context, selector string) (Control, error) {
	f.findCalls++
	if f.find == nil {
		return nil, nil
	}
	return f.find(f.findCalls), nil
}

func (f *fakeDriver) IsVisible(ctx context.Context, c Control) (bool, error) {
	fc, ok := c.(*fakeControl)
	return ok && fc.visible, nil
}

func (f *fakeDriver) Click(ctx context.Context, c Control) error {
	f.clicks++
	if f.click == nil {
		return nil
	}
	return f.click(f.clicks)
}

func (f *fakeDriver) CountElements(ctx context.Context, selector string) (int, error) {
	f.counts++
	return f.count, nil
}

func (f *fakeDriver) Settle(ctx context.Context) error {
	f.settles++
	return nil
}

func (f *fakeDriver) URL() string { return "https://example.test/feed" }

func (f *fakeDriver) Close() error {
	f.closes++
	return nil
}

// fakeFetcher serves scripted HTML pages by URL.
type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeTransport, "HTTP 404 for "+url, nil)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
