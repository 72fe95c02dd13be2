package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/ysmood/gson"
)

// toHeadersMap converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// Control is an opaque handle to an interactive element located by
// FindControl. Controls are not valid across a document mutation: a
// scroll or click may detach the underlying element, so callers re-locate
// instead of reusing a cached handle.
type Control interface{}

// Driver is the primitive surface of one browser automation session.
// Every method may block; mutations (scroll, click) are never issued
// concurrently with a pending Snapshot on the same session.
type Driver interface {
	// Snapshot returns the fully rendered current document: the
	// post-execution DOM, not the original server response.
	Snapshot(ctx context.Context) (*goquery.Document, error)

	// ScrollToBottom issues a scroll action. No observable effect if the
	// page is already at the bottom.
	ScrollToBottom(ctx context.Context) error

	// MeasureGrowth returns the current growth signal (scroll height).
	MeasureGrowth(ctx context.Context) (models.GrowthSignal, error)

	// FindControl locates an interactive element by selector. Absence is
	// a valid termination signal, reported as (nil, nil) rather than an
	// error.
	FindControl(ctx context.Context, selector string) (Control, error)

	// IsVisible reports whether the control is displayed.
	IsVisible(ctx context.Context, c Control) (bool, error)

	// Click clicks the control. A stale or detached control yields an
	// INTERACTION_FAILED error; the caller must re-locate and retry.
	Click(ctx context.Context, c Control) error

	// CountElements returns the number of elements currently matching
	// the selector in the live document.
	CountElements(ctx context.Context, selector string) (int, error)

	// Settle waits the fixed settle interval, honoring ctx.
	Settle(ctx context.Context) error

	// URL returns the session's target URL.
	URL() string

	// Close releases all session resources. Idempotent, and safe on a
	// partially-initialized session.
	Close() error
}

// Session is the rod-backed Driver. Each session owns a dedicated
// browser process; there is no pooling or reuse across feed runs, so a
// crash in one run cannot corrupt another.
type Session struct {
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	url     string
	settle  time.Duration

	closeOnce sync.Once
	closeErr  error
}

// blockedResources are fetched-but-unneeded resource types dropped during
// dynamic sessions. Stylesheets stay enabled: visibility checks depend on
// layout.
var blockedResources = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeImage: {},
	proto.NetworkResourceTypeFont:  {},
	proto.NetworkResourceTypeMedia: {},
}

// OpenSession launches a dedicated headless browser, navigates to
// targetURL, and waits one settle interval for the initial render.
// On any failure the partially-initialized session is torn down before
// the error is returned.
func OpenSession(ctx context.Context, cfg config.BrowserConfig, targetURL string, settle time.Duration) (*Session, error) {
	s := &Session{url: targetURL, settle: settle}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeDriver, "failed to launch browser", err)
	}
	s.launch = l

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeDriver, "failed to connect to browser", err)
	}
	s.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeDriver, "failed to create page", err)
	}
	s.page = page

	// Stealth JS, headers, and resource blocking only apply to
	// navigations that happen after they are installed.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}
	if u, parseErr := url.Parse(targetURL); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Referer": "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
			}),
		}.Call(page)
	}
	s.router = blockResources(page)

	p := page.Context(ctx)
	if err := p.Navigate(targetURL); err != nil {
		s.Close()
		return nil, navigationError(err, targetURL)
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}
	if err := s.Settle(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// blockResources installs a request interceptor dropping resource types
// the extraction never reads. Returns the running router so Close can
// stop it, or nil.
func blockResources(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if _, drop := blockedResources[h.Request.Type()]; drop {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	// router.Run blocks until router.Stop.
	go router.Run()
	return router
}

func (s *Session) Snapshot(ctx context.Context) (*goquery.Document, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return nil, driverError(err, "failed to read rendered document")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, driverError(err, "failed to parse rendered document")
	}
	return doc, nil
}

func (s *Session) ScrollToBottom(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	if err != nil {
		return driverError(err, "scroll to bottom failed")
	}
	return nil
}

func (s *Session) MeasureGrowth(ctx context.Context) (models.GrowthSignal, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, driverError(err, "failed to measure document height")
	}
	return models.GrowthSignal(res.Value.Int()), nil
}

func (s *Session) FindControl(ctx context.Context, selector string) (Control, error) {
	// Has does not retry: an absent control is a termination signal, not
	// something to wait for.
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, driverError(err, fmt.Sprintf("lookup of control %q failed", selector))
	}
	if !has {
		return nil, nil
	}
	return el, nil
}

func (s *Session) IsVisible(ctx context.Context, c Control) (bool, error) {
	el, ok := c.(*rod.Element)
	if !ok || el == nil {
		return false, nil
	}
	visible, err := el.Context(ctx).Visible()
	if err != nil {
		return false, driverError(err, "visibility check failed")
	}
	return visible, nil
}

func (s *Session) Click(ctx context.Context, c Control) error {
	el, ok := c.(*rod.Element)
	if !ok || el == nil {
		return models.NewScrapeError(models.ErrCodeInteraction, "click on missing control", nil)
	}
	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return models.NewScrapeError(models.ErrCodeInteraction, "click failed, control may be stale", err)
	}
	return nil
}

func (s *Session) CountElements(ctx context.Context, selector string) (int, error) {
	res, err := s.page.Context(ctx).Eval(
		`(sel) => document.querySelectorAll(sel).length`, selector)
	if err != nil {
		return 0, driverError(err, fmt.Sprintf("count of %q failed", selector))
	}
	return res.Value.Int(), nil
}

func (s *Session) Settle(ctx context.Context) error {
	select {
	case <-time.After(s.settle):
		return nil
	case <-ctx.Done():
		return models.NewScrapeError(models.ErrCodeTimeout, "settle wait interrupted", ctx.Err())
	}
}

func (s *Session) URL() string {
	return s.url
}

// Close releases the router, page, browser, and launcher temp state, in
// that order. Safe to call multiple times and on sessions that failed
// partway through OpenSession.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				s.closeErr = err
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				s.closeErr = err
			}
		}
		if s.launch != nil {
			s.launch.Cleanup()
		}
	})
	return s.closeErr
}

// navigationError classifies a page-load failure, keeping cancellation
// distinct from genuine navigation failures.
func navigationError(err error, targetURL string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "navigation interrupted", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("navigation to %s failed", targetURL), err)
	}
}

func driverError(err error, msg string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeDriver, msg, err)
	}
}
