package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Obituary archives are fond of multi-minute crawl delays; waiting them
// out would stall an enrichment run, so delays are capped.
const maxCrawlDelay = 10 * time.Second

// RobotsChecker gates the polite direct-fetch path on robots.txt.
// Paywalled and bot-protected outlets never reach this checker; the
// fetch manager routes them through archive or browser strategies
// instead.
type RobotsChecker struct {
	mu         sync.RWMutex
	groups     map[string]*robotstxt.Group
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a new robots.txt checker.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		groups: make(map[string]*robotstxt.Group),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// CanFetch reports whether the URL may be fetched and the pacing delay
// to honor before doing so. Robots fetch failures allow by default: an
// unreachable robots.txt must not take an obituary source offline.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	group, err := r.groupFor(ctx, parsed)
	if err != nil || group == nil {
		return true, 0, nil
	}

	delay := group.CrawlDelay
	if delay > maxCrawlDelay {
		delay = maxCrawlDelay
	}

	return group.Test(parsed.Path), delay, nil
}

func (r *RobotsChecker) groupFor(ctx context.Context, page *url.URL) (*robotstxt.Group, error) {
	r.mu.RLock()
	group, exists := r.groups[page.Host]
	r.mu.RUnlock()
	if exists {
		return group, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", page.Scheme, page.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	// FromStatusAndBytes maps 404 to allow-all and 401/403 to
	// disallow-all, matching crawler convention.
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	group = data.FindGroup(r.userAgent)

	r.mu.Lock()
	r.groups[page.Host] = group
	r.mu.Unlock()

	return group, nil
}

// Clear drops all cached robots groups.
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = make(map[string]*robotstxt.Group)
}
