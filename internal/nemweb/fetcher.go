package nemweb

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/Erio-Harrison/nem-price-bot/internal/logger"
)

const (
	dispatchURL    = "https://nemweb.com.au/Reports/Current/DispatchIS_Reports/"
	predispatchURL = "https://nemweb.com.au/Reports/Current/PredispatchIS_Reports/"

	dispatchPattern    = "PUBLIC_DISPATCHIS_"
	predispatchPattern = "PUBLIC_PREDISPATCHIS_"

	fetchAttempts = 3
)

// Client downloads AEMO's current report archives. AEMO publishes a plain
// directory listing per report type; filenames embed a timestamp, so the
// lexicographically greatest match is the newest archive.
type Client struct {
	http *http.Client

	// Overridable for tests.
	DispatchURL    string
	PredispatchURL string
	RetryDelay     time.Duration
}

// NewClient builds a client with the production endpoints and a 30s
// request timeout.
func NewClient() *Client {
	return &Client{
		http:           &http.Client{Timeout: 30 * time.Second},
		DispatchURL:    dispatchURL,
		PredispatchURL: predispatchURL,
		RetryDelay:     30 * time.Second,
	}
}

// FetchDispatch downloads and parses the latest dispatch prices.
// Retries up to 3 times with a fixed delay before giving up.
func (c *Client) FetchDispatch(ctx context.Context) ([]PriceRecord, error) {
	csv, err := c.fetchLatestCSV(ctx, c.DispatchURL, dispatchPattern)
	if err != nil {
		return nil, err
	}
	return ParseDispatch(csv), nil
}

// FetchPredispatch downloads and parses the latest pre-dispatch forecasts.
func (c *Client) FetchPredispatch(ctx context.Context) ([]ForecastRecord, error) {
	csv, err := c.fetchLatestCSV(ctx, c.PredispatchURL, predispatchPattern)
	if err != nil {
		return nil, err
	}
	return ParsePredispatch(csv), nil
}

func (c *Client) fetchLatestCSV(ctx context.Context, baseURL, pattern string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			logger.Warn("FETCH", fmt.Sprintf("Attempt %d failed for %s: %v", attempt, pattern, lastErr))
			select {
			case <-time.After(c.RetryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		csv, err := c.fetchLatestZip(ctx, baseURL, pattern)
		if err == nil {
			return csv, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("fetch %s after %d attempts: %w", pattern, fetchAttempts, lastErr)
}

// fetchLatestZip scrapes the listing, picks the newest matching archive and
// returns its first entry as text.
func (c *Client) fetchLatestZip(ctx context.Context, baseURL, pattern string) (string, error) {
	listing, err := c.getBody(ctx, baseURL)
	if err != nil {
		return "", fmt.Errorf("listing: %w", err)
	}

	// AEMO uses uppercase HREF and root-absolute paths; older mirrors use
	// relative ones. Match both, case-insensitively.
	re, err := regexp.Compile(`(?i)href="([^"]*` + regexp.QuoteMeta(pattern) + `[^"]*\.zip)"`)
	if err != nil {
		return "", err
	}
	var files []string
	for _, m := range re.FindAllStringSubmatch(string(listing), -1) {
		files = append(files, m[1])
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no %s archives in listing", pattern)
	}
	sort.Strings(files)
	latest := files[len(files)-1]

	zipURL, err := resolveHref(baseURL, latest)
	if err != nil {
		return "", err
	}
	data, err := c.getBody(ctx, zipURL)
	if err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	if len(archive.File) == 0 {
		return "", fmt.Errorf("empty archive %s", latest)
	}
	entry, err := archive.File[0].Open()
	if err != nil {
		return "", fmt.Errorf("open zip entry: %w", err)
	}
	defer entry.Close()
	csv, err := io.ReadAll(entry)
	if err != nil {
		return "", fmt.Errorf("read zip entry: %w", err)
	}
	return string(csv), nil
}

func (c *Client) getBody(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "nem-price-bot/1.0")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// resolveHref turns a listing href (root-absolute or relative) into an
// absolute URL against the listing's own base.
func resolveHref(baseURL, href string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
