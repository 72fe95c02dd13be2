package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	tls2 "github.com/refraction-networking/utls"
	"github.com/use-agent/harvest/models"
	"golang.org/x/time/rate"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// PageFetcher retrieves one page of server-rendered HTML and parses it.
// Implementations fail on non-2xx status or network failure; retry policy
// belongs to the caller.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (*goquery.Document, error)
}

// Fetcher performs HTTP GETs with a Chrome TLS fingerprint (utls) and a
// fixed minimum delay between requests.
type Fetcher struct {
	proxy   string
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher. delay is the minimum interval between
// consecutive fetches; zero disables pacing.
func NewFetcher(proxy string, delay time.Duration) *Fetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Fetcher{
		proxy:   proxy,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch retrieves targetURL and parses the response body into a document.
// Any network failure or a status outside 2xx yields a TRANSPORT_FAILED
// error; there are no silent partial pages and no retries at this layer.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*goquery.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeTimeout, "fetch delay interrupted", err)
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if f.proxy != "" {
		proxyURL, err := url.Parse(f.proxy)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeTransport, "build request", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeTransport,
			fmt.Sprintf("request to %s failed", targetURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, models.NewScrapeError(models.ErrCodeTransport,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, targetURL), nil)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 10*1024*1024)) // 10 MB cap
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeTransport, "parse response body", err)
	}
	return doc, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName:         host,
		InsecureSkipVerify: false,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
