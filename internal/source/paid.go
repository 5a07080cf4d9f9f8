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

// Paid archival providers. Each charges per search call, so the cost is
// recorded on the entry whether or not the call produced anything; the
// orchestrator's budget accounting depends on that.

type archiveSearchResponse struct {
	Records []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
		URL     string `json:"url"`
	} `json:"records"`
}

func extractFromRecords(resp archiveSearchResponse, subject *model.Subject) *model.ExtractionResult {
	var combined strings.Builder
	for _, rec := range resp.Records {
		combined.WriteString(rec.Title)
		combined.WriteString(". ")
		combined.WriteString(rec.Snippet)
		combined.WriteString("\n")
	}
	return follow.ExtractFromText(combined.String(), subject)
}

func newNewspapersAdapter(direct *fetch.Direct, apiKey func() string) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		query := url.Values{
			"query":  {fmt.Sprintf("%q obituary", subject.Name)},
			"apikey": {apiKey()},
			"count":  {"5"},
		}
		if subject.DeathYear > 0 {
			query.Set("date-start", fmt.Sprintf("%d-01-01", subject.DeathYear))
			query.Set("date-end", fmt.Sprintf("%d-12-31", subject.DeathYear+1))
		}
		searchURL := "https://api.newspapers.com/search/records?" + query.Encode()

		var resp archiveSearchResponse
		if err := getJSON(ctx, direct, searchURL, &resp); err != nil {
			return nil, "", err
		}
		if len(resp.Records) == 0 {
			return nil, "", fmt.Errorf("no newspaper records for %q", subject.Name)
		}
		return extractFromRecords(resp, subject), resp.Records[0].URL, nil
	}

	return newAdapter(
		"newspapers", model.ProviderNewsArchive, CostTierPaid, 0.01,
		model.TierPrimary, 0.45, 0.85,
		2*time.Second, 15*time.Second,
		func() bool { return apiKey() != "" }, perform,
	)
}

func newGenealogyBankAdapter(direct *fetch.Direct, apiKey func() string) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		query := url.Values{
			"first": {subject.FirstName()},
			"last":  {subject.LastName()},
			"kw":    {"obituary"},
			"key":   {apiKey()},
		}
		searchURL := "https://api.genealogybank.com/v1/obituaries?" + query.Encode()

		var resp archiveSearchResponse
		if err := getJSON(ctx, direct, searchURL, &resp); err != nil {
			return nil, "", err
		}
		if len(resp.Records) == 0 {
			return nil, "", fmt.Errorf("no obituary records for %q", subject.Name)
		}
		return extractFromRecords(resp, subject), resp.Records[0].URL, nil
	}

	return newAdapter(
		"genealogybank", model.ProviderObituaryIndex, CostTierPaid, 0.01,
		model.TierPrimary, 0.45, 0.85,
		2*time.Second, 15*time.Second,
		func() bool { return apiKey() != "" }, perform,
	)
}

func newNewsBankAdapter(direct *fetch.Direct, apiKey func() string) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		query := url.Values{
			"q":      {fmt.Sprintf("%q died", subject.Name)},
			"apikey": {apiKey()},
			"limit":  {"5"},
		}
		searchURL := "https://api.newsbank.com/search?" + query.Encode()

		var resp archiveSearchResponse
		if err := getJSON(ctx, direct, searchURL, &resp); err != nil {
			return nil, "", err
		}
		if len(resp.Records) == 0 {
			return nil, "", fmt.Errorf("no news records for %q", subject.Name)
		}
		return extractFromRecords(resp, subject), resp.Records[0].URL, nil
	}

	return newAdapter(
		"newsbank", model.ProviderNewsArchive, CostTierPaid, 0.02,
		model.TierSecondary, 0.40, 0.80,
		2*time.Second, 15*time.Second,
		func() bool { return apiKey() != "" }, perform,
	)
}
