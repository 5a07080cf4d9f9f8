package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/deadonfilm/deadonfilm/internal/fetch"
	"github.com/deadonfilm/deadonfilm/internal/follow"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

const wikipediaAPI = "https://en.wikipedia.org/w/api.php"

type wikipediaResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Missing string `json:"missing"`
		} `json:"pages"`
	} `json:"query"`
}

// newWikipediaAdapter reads the subject's article plain-text extract and
// runs the regex extractor over it.
func newWikipediaAdapter(direct *fetch.Direct) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		query := url.Values{
			"action":      {"query"},
			"prop":        {"extracts"},
			"explaintext": {"1"},
			"redirects":   {"1"},
			"format":      {"json"},
			"titles":      {subject.Name},
		}

		var resp wikipediaResponse
		if err := getJSON(ctx, direct, wikipediaAPI+"?"+query.Encode(), &resp); err != nil {
			return nil, "", err
		}

		articleURL := "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(subject.Name, " ", "_"))

		for _, page := range resp.Query.Pages {
			if page.Missing != "" || page.Extract == "" {
				continue
			}
			res := follow.ExtractFromText(page.Extract, subject)
			return res, articleURL, nil
		}

		return nil, articleURL, fmt.Errorf("no article for %q", subject.Name)
	}

	return newAdapter(
		"wikipedia", model.ProviderEncyclopedia, CostTierFree, 0,
		model.TierPrimary, 0.50, 0.80,
		2*time.Second, 15*time.Second,
		nil, perform,
	)
}

// newBritannicaAdapter scrapes the subject's Britannica biography page.
func newBritannicaAdapter(pages pageFetcher) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		slug := strings.ReplaceAll(strings.TrimSpace(subject.Name), " ", "-")
		bioURL := "https://www.britannica.com/biography/" + url.PathEscape(slug)

		page := pages.Page(ctx, bioURL)
		if page.Failed() {
			return nil, bioURL, fmt.Errorf("fetch biography: %s", page.Error)
		}

		res := follow.ExtractFromText(page.Content, subject)
		return res, bioURL, nil
	}

	return newAdapter(
		"britannica", model.ProviderEncyclopedia, CostTierFree, 0,
		model.TierPrimary, 0.45, 0.75,
		3*time.Second, 15*time.Second,
		nil, perform,
	)
}

// pageFetcher mirrors follow.PageFetcher; declared locally so adapters
// can be tested with stub fetchers without importing follow for it.
type pageFetcher interface {
	Page(ctx context.Context, rawURL string) model.FetchedPage
}
