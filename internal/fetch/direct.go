// Package fetch provides the three page getters (direct HTTP, headless
// browser, archive snapshot) unified behind model.FetchedPage, plus the
// escalation logic that picks between them per URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deadonfilm/deadonfilm/internal/model"
	"github.com/deadonfilm/deadonfilm/internal/util"
)

// BlockError reports that a fetch was refused by the origin, either with
// a hard status or a soft 200-with-challenge-body response.
type BlockError struct {
	URL        string
	StatusCode int
	Soft       bool
}

func (e *BlockError) Error() string {
	if e.Soft {
		return fmt.Sprintf("soft block (bot challenge) at %s", e.URL)
	}
	return fmt.Sprintf("blocked with status %d at %s", e.StatusCode, e.URL)
}

// ErrRobotsDisallowed means robots.txt forbids the path. No escalation
// happens for this; a site that opted out stays opted out.
var ErrRobotsDisallowed = errors.New("robots.txt disallows fetch")

// Markers of a bot-challenge or login-wall body hiding behind HTTP 200.
var softBlockMarkers = []string{
	"are you a robot",
	"verify you are a human",
	"please enable javascript",
	"captcha",
	"access to this page has been denied",
	"subscribe to continue reading",
	"create a free account to continue",
	"checking your browser",
}

// Direct fetches pages with a plain HTTP GET and a realistic client
// identity.
type Direct struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	robots    *util.RobotsChecker // nil skips the politeness gate
}

// NewDirect creates a direct fetcher from the HTTP config.
func NewDirect(cfg model.HTTPConfig, robots *util.RobotsChecker) *Direct {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}

	return &Direct{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		robots:    robots,
	}
}

// FetchHTML retrieves raw HTML. It returns *BlockError for hard blocks
// (4xx and 999-style statuses) and for soft blocks (200 with a challenge
// body), so the caller can escalate to a rendered-DOM fetch.
func (d *Direct) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	if d.robots != nil {
		allowed, delay, err := d.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			return "", ErrRobotsDisallowed
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.google.com/")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 || resp.StatusCode == 999 {
		return "", &BlockError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	html := string(body)
	if isSoftBlocked(html) {
		return "", &BlockError{URL: rawURL, StatusCode: resp.StatusCode, Soft: true}
	}

	return html, nil
}

// Do exposes the underlying client for cookie-bearing requests made by
// the session manager.
func (d *Direct) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", d.userAgent)
	return d.client.Do(req)
}

// MaxBytes returns the body read limit.
func (d *Direct) MaxBytes() int64 {
	return d.maxBytes
}

func isSoftBlocked(html string) bool {
	// Challenge pages are short; real articles run long. Only inspect
	// bodies small enough to plausibly be a wall.
	if len(html) > 50_000 {
		return false
	}
	lower := strings.ToLower(html)
	for _, marker := range softBlockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// isTimeout reports whether an error is a deadline/timeout, which does
// not trigger browser escalation (the slow site will be slow there too).
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
