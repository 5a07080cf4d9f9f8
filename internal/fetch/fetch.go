package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/cache"
	"github.com/deadonfilm/deadonfilm/internal/model"
	"github.com/deadonfilm/deadonfilm/internal/worker"
)

// Outlets that paywall obituaries but have usable archive snapshots.
var paywalledDomains = map[string]bool{
	"washingtonpost.com": true,
	"wsj.com":            true,
	"latimes.com":        true,
	"bostonglobe.com":    true,
	"telegraph.co.uk":    true,
}

// Domains whose bot protection makes a plain GET pointless.
var botProtectedDomains = map[string]bool{
	"variety.com":           true,
	"hollywoodreporter.com": true,
	"rollingstone.com":      true,
	"deadline.com":          true,
}

// Manager picks a retrieval strategy per URL and escalates through
// fallbacks: authenticated session, archive snapshot, headless browser,
// plain GET. Every path returns a FetchedPage; failures set Error rather
// than returning a Go error.
type Manager struct {
	direct   *Direct
	browser  Browser // nil when headless fetch is disabled
	archive  *Archive
	sessions map[string]*SessionManager
	pages    cache.Cache // nil disables page caching
	limiter  *worker.Limiter
	cfg      model.BrowserFetchConfig
	pageTTL  time.Duration
	log      zerolog.Logger
}

// NewManager assembles the fetch layer.
func NewManager(direct *Direct, browser Browser, archive *Archive, pages cache.Cache, cfg model.BrowserFetchConfig, log zerolog.Logger) *Manager {
	return &Manager{
		direct:   direct,
		browser:  browser,
		archive:  archive,
		sessions: make(map[string]*SessionManager),
		pages:    pages,
		limiter:  worker.NewLimiter(1, 2),
		cfg:      cfg,
		pageTTL:  24 * time.Hour,
		log:      log,
	}
}

// RegisterSession attaches an authenticated-session provider for one
// paywalled outlet.
func (m *Manager) RegisterSession(s *SessionManager) {
	m.sessions[s.Domain()] = s
}

// Page fetches one URL through the appropriate strategy chain.
func (m *Manager) Page(ctx context.Context, rawURL string) model.FetchedPage {
	domain := domainOf(rawURL)

	if cached, ok := m.cachedPage(rawURL); ok {
		return cached
	}

	if err := m.limiter.Wait(ctx, rawURL); err != nil {
		return errorPage(rawURL, err.Error())
	}

	page := m.fetch(ctx, rawURL, domain)
	if !page.Failed() {
		m.storePage(page)
	}
	return page
}

func (m *Manager) fetch(ctx context.Context, rawURL, domain string) model.FetchedPage {
	// 1. Outlet with an integrated authenticated session.
	if s, ok := m.sessions[domain]; ok {
		page := s.Fetch(ctx, rawURL)
		if !page.Failed() {
			return page
		}
		// Session path failed entirely; fall through to the archive.
		m.log.Debug().Str("url", rawURL).Str("reason", page.Error).Msg("session fetch fell back")
	}

	// 2. Generically paywalled outlet: archive snapshot first.
	if m.sessions[domain] != nil || paywalledDomains[domain] {
		if page := m.archiveFetch(ctx, rawURL); !page.Failed() {
			return page
		}
		if m.browserAllowed() {
			return m.browserFetch(ctx, rawURL)
		}
		return errorPage(rawURL, "paywalled and no archive snapshot")
	}

	// 3. Known bot protection: go straight to the rendered-DOM fetch.
	if botProtectedDomains[domain] && m.browserAllowed() {
		return m.browserFetch(ctx, rawURL)
	}

	// 4. Plain GET, escalating on hard blocks, soft blocks, and
	// non-timeout network errors.
	html, err := m.direct.FetchHTML(ctx, rawURL)
	if err == nil {
		return m.renderedPage(rawURL, html, model.FetchDirect, "")
	}

	if errors.Is(err, ErrRobotsDisallowed) {
		return errorPage(rawURL, err.Error())
	}

	var blocked *BlockError
	escalate := errors.As(err, &blocked) || !isTimeout(err)

	if escalate && m.browserAllowed() && m.cfg.FallbackOnBlock {
		return m.browserFetch(ctx, rawURL)
	}

	return errorPage(rawURL, err.Error())
}

func (m *Manager) archiveFetch(ctx context.Context, rawURL string) model.FetchedPage {
	html, snapshotURL, err := m.archive.FetchHTML(ctx, rawURL)
	if err != nil {
		return errorPage(rawURL, err.Error())
	}
	return m.renderedPage(rawURL, html, model.FetchArchive, snapshotURL)
}

func (m *Manager) browserFetch(ctx context.Context, rawURL string) model.FetchedPage {
	html, err := m.browser.FetchHTML(ctx, rawURL)
	if err != nil {
		return errorPage(rawURL, err.Error())
	}
	page := m.renderedPage(rawURL, html, model.FetchBrowser, "")
	return page
}

func (m *Manager) browserAllowed() bool {
	return m.browser != nil && m.cfg.Enabled
}

func (m *Manager) renderedPage(rawURL, html string, method model.FetchMethod, archiveURL string) model.FetchedPage {
	title, content := extractReadable(html, rawURL)
	return model.FetchedPage{
		URL:           rawURL,
		Title:         title,
		Content:       content,
		ContentLength: len(content),
		FetchedAt:     time.Now().UTC(),
		Method:        method,
		ArchiveURL:    archiveURL,
	}
}

func (m *Manager) cachedPage(rawURL string) (model.FetchedPage, bool) {
	if m.pages == nil {
		return model.FetchedPage{}, false
	}
	blob, found := m.pages.Get(cache.PageKey(rawURL))
	if !found {
		return model.FetchedPage{}, false
	}
	var page model.FetchedPage
	if err := json.Unmarshal(blob, &page); err != nil {
		return model.FetchedPage{}, false
	}
	return page, true
}

func (m *Manager) storePage(page model.FetchedPage) {
	if m.pages == nil {
		return
	}
	blob, err := json.Marshal(page)
	if err != nil {
		return
	}
	_ = m.pages.Set(cache.PageKey(page.URL), blob, m.pageTTL)
}

func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	return host
}
