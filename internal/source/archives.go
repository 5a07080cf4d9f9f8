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
	"github.com/deadonfilm/deadonfilm/internal/verify"
)

type chroniclingResponse struct {
	Items []struct {
		Title string `json:"title"`
		Date  string `json:"date"`
		OCR   string `json:"ocr_eng"`
		ID    string `json:"id"`
	} `json:"items"`
}

// newChroniclingAdapter searches the Library of Congress newspaper
// archive. Historical OCR text only; useful for pre-digital deaths.
// Archival and low-priority, so it runs on the aggressive gate and the
// short timeout.
func newChroniclingAdapter(direct *fetch.Direct) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		query := url.Values{
			"andtext": {subject.Name + " obituary"},
			"format":  {"json"},
			"rows":    {"5"},
		}
		searchURL := "https://chroniclingamerica.loc.gov/search/pages/results/?" + query.Encode()

		var resp chroniclingResponse
		if err := getJSON(ctx, direct, searchURL, &resp); err != nil {
			return nil, searchURL, err
		}
		if len(resp.Items) == 0 {
			return nil, searchURL, fmt.Errorf("no archive pages for %q", subject.Name)
		}

		var combined strings.Builder
		for _, item := range resp.Items {
			ocr := item.OCR
			if len(ocr) > 2000 {
				ocr = ocr[:2000]
			}
			combined.WriteString(ocr)
			combined.WriteString("\n")
		}

		res := follow.ExtractFromText(combined.String(), subject)
		return res, searchURL, nil
	}

	return newAdapter(
		"chroniclingamerica", model.ProviderNewsArchive, CostTierFree, 0,
		model.TierSecondary, 0.30, 0.60,
		6*time.Second, 8*time.Second,
		nil, perform,
	)
}

const cdxSearchAPI = "https://web.archive.org/cdx/search/cdx"

// Obituary pages worth probing for archived copies. Trade outlets purge
// old obituaries; the archive usually still holds them.
var obituaryURLPatterns = []string{
	"https://variety.com/obituaries/%s/",
	"https://www.hollywoodreporter.com/news/%s-dead/",
	"https://www.legacy.com/us/obituaries/name/%s",
}

// newWaybackAdapter probes the archive's CDX index for snapshots of
// obituary pages that no longer resolve live.
func newWaybackAdapter(direct *fetch.Direct, pages pageFetcher) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		slug := nameSlug(subject.Name)
		if slug == "" {
			return nil, "", fmt.Errorf("cannot build obituary slug for %q", subject.Name)
		}

		for _, pattern := range obituaryURLPatterns {
			target := fmt.Sprintf(pattern, slug)
			snapshot, err := cdxSnapshotAt(ctx, direct, cdxSearchAPI, target)
			if err != nil || snapshot == "" {
				continue
			}

			page := pages.Page(ctx, snapshot)
			if page.Failed() {
				continue
			}

			if res := follow.ExtractFromText(page.Content, subject); !res.Empty() {
				return res, snapshot, nil
			}
		}

		return nil, "", fmt.Errorf("no archived obituary for %q", subject.Name)
	}

	return newAdapter(
		"wayback", model.ProviderNewsArchive, CostTierFree, 0,
		model.TierSecondary, 0.30, 0.60,
		5*time.Second, 20*time.Second,
		nil, perform,
	)
}

// cdxSnapshotAt resolves the newest successful capture of a URL from
// the given CDX index, or "" when the archive has none.
func cdxSnapshotAt(ctx context.Context, direct *fetch.Direct, indexURL, target string) (string, error) {
	query := url.Values{
		"url":    {target},
		"output": {"json"},
		"limit":  {"-1"},
		"filter": {"statuscode:200"},
	}

	var rows [][]string
	if err := getJSON(ctx, direct, indexURL+"?"+query.Encode(), &rows); err != nil {
		return "", err
	}

	// Row zero is the field header; fields are urlkey, timestamp,
	// original, mimetype, statuscode, digest, length.
	if len(rows) < 2 || len(rows[1]) < 3 {
		return "", nil
	}
	timestamp, original := rows[1][1], rows[1][2]

	return fmt.Sprintf("https://web.archive.org/web/%s/%s", timestamp, original), nil
}

func nameSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

type tmdbSearchResponse struct {
	Results []struct {
		ID int `json:"id"`
	} `json:"results"`
}

type tmdbPersonResponse struct {
	Biography    string `json:"biography"`
	Deathday     string `json:"deathday"`
	PlaceOfBirth string `json:"place_of_birth"`
}

type tmdbTVCreditsResponse struct {
	Cast []struct {
		Name         string `json:"name"`
		EpisodeCount int    `json:"episode_count"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"cast"`
}

// newScreenCreditsAdapter looks the subject up in the movie database.
// A credits provider structurally cannot supply death circumstances, so
// it caps near 0.3 no matter how rich the biography reads; its value is
// the recorded death date.
func newScreenCreditsAdapter(direct *fetch.Direct, apiKey func() string) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		key := apiKey()
		if key == "" {
			return nil, "", fmt.Errorf("missing movie database API key")
		}

		personID := subject.TMDBID
		if personID == 0 {
			searchURL := fmt.Sprintf("https://api.themoviedb.org/3/search/person?api_key=%s&query=%s",
				url.QueryEscape(key), url.QueryEscape(subject.Name))
			var search tmdbSearchResponse
			if err := getJSON(ctx, direct, searchURL, &search); err != nil {
				return nil, "", err
			}
			if len(search.Results) == 0 {
				return nil, "", fmt.Errorf("person not found: %q", subject.Name)
			}
			personID = search.Results[0].ID
		}

		personURL := fmt.Sprintf("https://api.themoviedb.org/3/person/%d?api_key=%s", personID, url.QueryEscape(key))
		var person tmdbPersonResponse
		if err := getJSON(ctx, direct, personURL, &person); err != nil {
			return nil, "", err
		}

		publicURL := fmt.Sprintf("https://www.themoviedb.org/person/%d", personID)

		creditsURL := fmt.Sprintf("https://api.themoviedb.org/3/person/%d/tv_credits?api_key=%s", personID, url.QueryEscape(key))
		var credits tmdbTVCreditsResponse
		if err := getJSON(ctx, direct, creditsURL, &credits); err == nil {
			if year := lastCreditYear(credits); subject.DeathYear > 0 && year > subject.DeathYear+1 {
				return nil, publicURL, fmt.Errorf("tv credits continue through %d, after recorded death in %d", year, subject.DeathYear)
			}
		}

		res := &model.ExtractionResult{
			DateOfDeath: person.Deathday,
		}
		if person.Biography != "" {
			bio := follow.ExtractFromText(person.Biography, subject)
			res.Circumstances = bio.Circumstances
			res.NotableFactors = bio.NotableFactors
		}

		return res, publicURL, nil
	}

	return newAdapter(
		"screencredits", model.ProviderScreenCredits, CostTierFree, 0,
		model.TierSecondary, 0.20, 0.30,
		2*time.Second, 15*time.Second,
		func() bool { return apiKey() != "" }, perform,
	)
}

// lastCreditYear finds the most recent first-air year among TV credits,
// skipping entries whose season data is glitched. Aggregated credits
// arrive flattened to a single pseudo-season, so the episode count
// stands in for the worst season.
func lastCreditYear(credits tmdbTVCreditsResponse) int {
	latest := 0
	for _, c := range credits.Cast {
		if verify.SeasonDataUnreliable(c.EpisodeCount, 1, 0) {
			continue
		}
		if len(c.FirstAirDate) < 4 {
			continue
		}
		var year int
		if _, err := fmt.Sscanf(c.FirstAirDate[:4], "%d", &year); err != nil {
			continue
		}
		if year > latest {
			latest = year
		}
	}
	return latest
}
