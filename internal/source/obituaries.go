package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/deadonfilm/deadonfilm/internal/fetch"
	"github.com/deadonfilm/deadonfilm/internal/follow"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

var memorialLinkRe = regexp.MustCompile(`href="(/memorial/\d+/[^"]+)"`)

// newFindAGraveAdapter searches the memorial index and extracts from the
// top memorial page.
func newFindAGraveAdapter(direct *fetch.Direct, pages pageFetcher) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		query := url.Values{
			"firstname": {subject.FirstName()},
			"lastname":  {subject.LastName()},
		}
		if subject.DeathYear > 0 {
			query.Set("deathyear", fmt.Sprintf("%d", subject.DeathYear))
		}
		searchURL := "https://www.findagrave.com/memorial/search?" + query.Encode()

		html, err := direct.FetchHTML(ctx, searchURL)
		if err != nil {
			return nil, searchURL, err
		}

		match := memorialLinkRe.FindStringSubmatch(html)
		if match == nil {
			return nil, searchURL, fmt.Errorf("no memorial found for %q", subject.Name)
		}
		memorialURL := "https://www.findagrave.com" + match[1]

		page := pages.Page(ctx, memorialURL)
		if page.Failed() {
			return nil, memorialURL, fmt.Errorf("fetch memorial: %s", page.Error)
		}

		res := follow.ExtractFromText(page.Content, subject)
		return res, memorialURL, nil
	}

	return newAdapter(
		"findagrave", model.ProviderObituaryIndex, CostTierFree, 0,
		model.TierPrimary, 0.40, 0.70,
		3*time.Second, 15*time.Second,
		nil, perform,
	)
}

var obituaryLinkRe = regexp.MustCompile(`href="(https://www\.legacy\.com/[^"]*obituar[^"]*)"`)

// newLegacyAdapter searches the national obituary index.
func newLegacyAdapter(direct *fetch.Direct, pages pageFetcher) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		searchURL := "https://www.legacy.com/search?query=" + url.QueryEscape(subject.Name)

		html, err := direct.FetchHTML(ctx, searchURL)
		if err != nil {
			return nil, searchURL, err
		}

		match := obituaryLinkRe.FindStringSubmatch(html)
		if match == nil {
			return nil, searchURL, fmt.Errorf("no obituary found for %q", subject.Name)
		}
		obitURL := match[1]

		page := pages.Page(ctx, obitURL)
		if page.Failed() {
			return nil, obitURL, fmt.Errorf("fetch obituary: %s", page.Error)
		}

		res := follow.ExtractFromText(page.Content, subject)
		return res, obitURL, nil
	}

	return newAdapter(
		"legacy", model.ProviderObituaryIndex, CostTierFree, 0,
		model.TierPrimary, 0.50, 0.75,
		3*time.Second, 15*time.Second,
		nil, perform,
	)
}

var tributesLinkRe = regexp.MustCompile(`href="(https?://www\.tributes\.com/obituary/[^"]+)"`)

// newTributesAdapter searches a secondary obituary index. Lower value
// than legacy, so it gets the more aggressive pacing and the short
// low-priority timeout.
func newTributesAdapter(direct *fetch.Direct, pages pageFetcher) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		searchURL := "https://www.tributes.com/search/obituaries/?q=" + url.QueryEscape(subject.Name)

		html, err := direct.FetchHTML(ctx, searchURL)
		if err != nil {
			return nil, searchURL, err
		}

		match := tributesLinkRe.FindStringSubmatch(html)
		if match == nil {
			return nil, searchURL, fmt.Errorf("no obituary found for %q", subject.Name)
		}
		obitURL := match[1]

		page := pages.Page(ctx, obitURL)
		if page.Failed() {
			return nil, obitURL, fmt.Errorf("fetch obituary: %s", page.Error)
		}

		res := follow.ExtractFromText(page.Content, subject)
		return res, obitURL, nil
	}

	return newAdapter(
		"tributes", model.ProviderObituaryIndex, CostTierFree, 0,
		model.TierSecondary, 0.35, 0.60,
		5*time.Second, 8*time.Second,
		nil, perform,
	)
}
