package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/cache"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

type sessionCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// SessionManager fetches from a paywalled outlet with an authenticated
// session. Sessions live in a keyed store; a fresh login is persisted
// only after a fetch with its cookies is confirmed to bypass the wall.
type SessionManager struct {
	store    cache.Cache
	direct   *Direct
	browser  LoginBrowser
	domain   string
	loginURL string
	user     string
	password string
	ttl      time.Duration
	log      zerolog.Logger
}

// NewSessionManager creates a session manager for one integrated outlet.
func NewSessionManager(store cache.Cache, direct *Direct, browser LoginBrowser, domain, loginURL, user, password string, ttl time.Duration, log zerolog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionManager{
		store:    store,
		direct:   direct,
		browser:  browser,
		domain:   domain,
		loginURL: loginURL,
		user:     user,
		password: password,
		ttl:      ttl,
		log:      log,
	}
}

// Domain returns the outlet this manager holds a session for.
func (m *SessionManager) Domain() string {
	return m.domain
}

// Fetch retrieves a page using the persisted session, logging in again
// when the session is absent or no longer bypasses the paywall. Any
// navigation or login failure returns an empty-content error page so the
// caller can fall back, never an error.
func (m *SessionManager) Fetch(ctx context.Context, pageURL string) model.FetchedPage {
	if cookies, ok := m.loadSession(); ok {
		if html, err := m.fetchWithCookies(ctx, pageURL, cookies); err == nil {
			return m.page(pageURL, html)
		}
		// Session expired or stopped working; fall through to login.
		_ = m.store.Delete(cache.SessionKey(m.domain))
	}

	cookies, err := m.browser.Login(ctx, m.loginURL, m.user, m.password)
	if err != nil {
		m.log.Warn().Str("domain", m.domain).Err(err).Msg("paywall login failed")
		return errorPage(pageURL, fmt.Sprintf("login failed: %v", err))
	}

	html, err := m.fetchWithCookies(ctx, pageURL, cookies)
	if err != nil {
		m.log.Warn().Str("domain", m.domain).Err(err).Msg("session fetch failed after login")
		return errorPage(pageURL, fmt.Sprintf("session fetch failed: %v", err))
	}

	// Login is now confirmed working; persist it.
	m.saveSession(cookies)

	return m.page(pageURL, html)
}

// fetchWithCookies performs a cookie-bearing GET and verifies by content
// inspection that the paywall was actually bypassed.
func (m *SessionManager) fetchWithCookies(ctx context.Context, pageURL string, cookies []*http.Cookie) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := m.direct.Do(req)
	if err != nil {
		return "", fmt.Errorf("session fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", &BlockError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, m.direct.MaxBytes()))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	html := string(body)
	if !bypassedPaywall(html) {
		return "", fmt.Errorf("session no longer bypasses paywall")
	}
	return html, nil
}

func (m *SessionManager) loadSession() ([]*http.Cookie, bool) {
	blob, found := m.store.Get(cache.SessionKey(m.domain))
	if !found {
		return nil, false
	}

	var stored []sessionCookie
	if err := json.Unmarshal(blob, &stored); err != nil {
		return nil, false
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return cookies, len(cookies) > 0
}

func (m *SessionManager) saveSession(cookies []*http.Cookie) {
	stored := make([]sessionCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, sessionCookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}

	blob, err := json.Marshal(stored)
	if err != nil {
		return
	}
	if err := m.store.Set(cache.SessionKey(m.domain), blob, m.ttl); err != nil {
		m.log.Warn().Str("domain", m.domain).Err(err).Msg("persist session failed")
	}
}

func (m *SessionManager) page(pageURL, html string) model.FetchedPage {
	title, content := extractReadable(html, pageURL)
	return model.FetchedPage{
		URL:           pageURL,
		Title:         title,
		Content:       content,
		ContentLength: len(content),
		FetchedAt:     time.Now().UTC(),
		Method:        model.FetchDirect,
	}
}

// bypassedPaywall checks that the body reads like an article rather than
// a subscription wall.
func bypassedPaywall(html string) bool {
	if len(html) < minReadableLength {
		return false
	}
	lower := strings.ToLower(html)
	for _, marker := range []string{"subscribe to continue", "log in to continue", "subscription required"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

func errorPage(pageURL, msg string) model.FetchedPage {
	return model.FetchedPage{
		URL:       pageURL,
		FetchedAt: time.Now().UTC(),
		Method:    model.FetchDirect,
		Error:     msg,
	}
}
