package follow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/llm"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

// Static domain-reputation table. Obituary archives and the major
// entertainment trades score highest; social media scores low.
var domainReputation = map[string]int{
	"legacy.com":            90,
	"findagrave.com":        85,
	"dignitymemorial.com":   80,
	"variety.com":           80,
	"hollywoodreporter.com": 80,
	"deadline.com":          75,
	"en.wikipedia.org":      75,
	"nytimes.com":           75,
	"apnews.com":            72,
	"bbc.com":               70,
	"bbc.co.uk":             70,
	"reuters.com":           70,
	"washingtonpost.com":    70,
	"latimes.com":           70,
	"theguardian.com":       68,
	"people.com":            65,
	"tmz.com":               60,
	"imdb.com":              55,
	"reddit.com":            30,
	"facebook.com":          20,
	"twitter.com":           20,
	"x.com":                 20,
	"instagram.com":         15,
}

// Irrelevant commerce and media-sharing domains, excluded outright
// unless an allowlist is configured.
var defaultBlockedDomains = []string{
	"pinterest.com",
	"ebay.com",
	"amazon.com",
	"etsy.com",
	"aliexpress.com",
	"youtube.com",
	"tiktok.com",
	"spotify.com",
	"soundcloud.com",
	"giphy.com",
}

// ScoreResult rates one search result 0-100 for death-circumstances
// relevance. It is a pure function of its input.
func ScoreResult(r model.SearchResult) int {
	score := 50
	if rep, ok := domainReputation[resultDomain(r)]; ok {
		score = rep
	}

	text := strings.ToLower(r.Title + " " + r.Snippet)

	score += 5 * countKeywordHits(text, deathKeywords)
	score += 3 * countKeywordHits(text, circumstanceKeywords)

	if strings.Contains(text, "obituary") {
		score += 15
	}
	if strings.Contains(text, "cause of death") {
		score += 20
	}
	if strings.Contains(text, "died") || strings.Contains(text, "death") {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// HeuristicSelect ranks search results by ScoreResult and returns at
// most maxLinks URLs. Blocked domains are excluded outright; when an
// allowlist is configured it replaces the blocklist entirely.
func HeuristicSelect(results []model.SearchResult, maxLinks int, blockedDomains, allowedDomains []string) []string {
	if maxLinks <= 0 || len(results) == 0 {
		return nil
	}

	blocked := blockedDomains
	if len(blocked) == 0 {
		blocked = defaultBlockedDomains
	}

	type scored struct {
		url   string
		score int
	}

	candidates := make([]scored, 0, len(results))
	for _, r := range results {
		domain := resultDomain(r)
		if len(allowedDomains) > 0 {
			if !domainInList(domain, allowedDomains) {
				continue
			}
		} else if domainInList(domain, blocked) {
			continue
		}
		candidates = append(candidates, scored{url: r.URL, score: ScoreResult(r)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > maxLinks {
		candidates = candidates[:maxLinks]
	}

	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.url
	}
	return urls
}

// Selection is the outcome of the link-selection phase.
type Selection struct {
	URLs     []string
	Cost     float64
	Strategy string // "heuristic" or "ai"
}

// Selector picks URLs to follow, optionally with AI ranking that falls
// back to the heuristic on any failure.
type Selector struct {
	provider llm.Provider // nil forces the heuristic path
	useAI    bool
	log      zerolog.Logger
}

// NewSelector creates a selector.
func NewSelector(provider llm.Provider, useAI bool, log zerolog.Logger) *Selector {
	return &Selector{provider: provider, useAI: useAI, log: log}
}

// Select returns at most maxLinks URLs worth fetching. The heuristic
// path always costs 0; the AI path reports its token cost.
func (s *Selector) Select(ctx context.Context, subjectName string, results []model.SearchResult, maxLinks int, blockedDomains, allowedDomains []string) Selection {
	if s.useAI && s.provider != nil {
		if sel, err := s.aiSelect(ctx, subjectName, results, maxLinks); err == nil {
			return sel
		} else {
			s.log.Debug().Err(err).Msg("ai link selection fell back to heuristic")
		}
	}

	return Selection{
		URLs:     HeuristicSelect(results, maxLinks, blockedDomains, allowedDomains),
		Strategy: "heuristic",
	}
}

type aiSelectionResponse struct {
	URLs []string `json:"urls"`
}

func (s *Selector) aiSelect(ctx context.Context, subjectName string, results []model.SearchResult, maxLinks int) (Selection, error) {
	var list strings.Builder
	for i, r := range results {
		fmt.Fprintf(&list, "%d. %s\n   title: %s\n   snippet: %s\n", i+1, r.URL, r.Title, r.Snippet)
	}

	prompt := fmt.Sprintf(`Select up to %d URLs most likely to describe the circumstances of death of %s. Prefer obituaries and reputable news coverage; skip shops, social media, and fan galleries.

Candidates:
%s
Respond with only a JSON object: {"urls": ["..."]} listing your picks in ranked order. Pick only from the candidate URLs.`, maxLinks, subjectName, list.String())

	completion, err := s.provider.Complete(ctx, llm.Request{
		System:    "You rank search results for an obituary research pipeline.",
		Prompt:    prompt,
		MaxTokens: 400,
	})
	if err != nil {
		return Selection{}, fmt.Errorf("ai selection: %w", err)
	}

	var parsed aiSelectionResponse
	if err := json.Unmarshal([]byte(llm.StripJSONFence(completion.Text)), &parsed); err != nil {
		return Selection{}, fmt.Errorf("parse ai selection: %w", err)
	}

	// Constrain to the candidate set; the model is not trusted to
	// introduce URLs.
	candidates := make(map[string]bool, len(results))
	for _, r := range results {
		candidates[r.URL] = true
	}

	var urls []string
	for _, u := range parsed.URLs {
		if candidates[u] && len(urls) < maxLinks {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return Selection{}, fmt.Errorf("ai selection returned no usable URLs")
	}

	return Selection{URLs: urls, Cost: completion.Cost(), Strategy: "ai"}, nil
}

func resultDomain(r model.SearchResult) string {
	if r.Domain != "" {
		return normalizeDomain(r.Domain)
	}
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return normalizeDomain(parsed.Host)
}

func normalizeDomain(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func domainInList(domain string, list []string) bool {
	for _, d := range list {
		d = normalizeDomain(d)
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
