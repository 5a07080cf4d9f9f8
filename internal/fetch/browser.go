package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Browser renders a page in a headless browser and returns its DOM HTML.
type Browser interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

// LoginBrowser additionally runs an interactive login flow and returns
// the session cookies it produced.
type LoginBrowser interface {
	Browser
	Login(ctx context.Context, loginURL, user, password string) ([]*http.Cookie, error)
}

// RodBrowser implements Browser and LoginBrowser with go-rod. A browser
// instance is launched per call and released on every exit path.
type RodBrowser struct {
	navTimeout time.Duration
	userAgent  string
}

// NewRodBrowser creates a rod-backed browser fetcher.
func NewRodBrowser(navTimeout time.Duration, userAgent string) *RodBrowser {
	if navTimeout <= 0 {
		navTimeout = 25 * time.Second
	}
	return &RodBrowser{navTimeout: navTimeout, userAgent: userAgent}
}

// FetchHTML navigates to the page and returns the rendered DOM.
func (b *RodBrowser) FetchHTML(ctx context.Context, pageURL string) (html string, err error) {
	browser, cleanup, err := b.connect(ctx)
	if err != nil {
		return "", err
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}

	if b.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.userAgent}); err != nil {
			return "", fmt.Errorf("set user agent: %w", err)
		}
	}

	page = page.Timeout(b.navTimeout)

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	html, err = page.HTML()
	if err != nil {
		return "", fmt.Errorf("read dom: %w", err)
	}
	return html, nil
}

// Login navigates the login form, submits credentials, and returns the
// resulting cookies. Callers persist them only after verifying a fetch
// with them actually bypasses the wall.
func (b *RodBrowser) Login(ctx context.Context, loginURL, user, password string) (cookies []*http.Cookie, err error) {
	browser, cleanup, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{URL: loginURL})
	if err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}
	page = page.Timeout(b.navTimeout)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait login page: %w", err)
	}

	userField, err := page.Element(`input[type="email"], input[name="email"], input[name="username"]`)
	if err != nil {
		return nil, fmt.Errorf("find user field: %w", err)
	}
	if err := userField.Input(user); err != nil {
		return nil, fmt.Errorf("enter user: %w", err)
	}

	passField, err := page.Element(`input[type="password"]`)
	if err != nil {
		return nil, fmt.Errorf("find password field: %w", err)
	}
	if err := passField.Input(password); err != nil {
		return nil, fmt.Errorf("enter password: %w", err)
	}

	submit, err := page.Element(`button[type="submit"], input[type="submit"]`)
	if err != nil {
		return nil, fmt.Errorf("find submit: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("submit login: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait post-login: %w", err)
	}

	raw, err := browser.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	for _, c := range raw {
		cookies = append(cookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return cookies, nil
}

// connect launches a headless instance bound to ctx. The returned cleanup
// must run on every exit path so no browser process leaks.
func (b *RodBrowser) connect(ctx context.Context) (*rod.Browser, func(), error) {
	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	cleanup := func() { _ = browser.Close() }
	return browser, cleanup, nil
}
