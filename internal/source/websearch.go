package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/deadonfilm/deadonfilm/internal/fetch"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

// LinkFollower is the slice of follow.Follower the search adapters use.
type LinkFollower interface {
	Follow(ctx context.Context, subject *model.Subject, results []model.SearchResult) *model.ExtractionResult
}

func deathQuery(subject *model.Subject) string {
	q := fmt.Sprintf("%q cause of death", subject.Name)
	if subject.DeathYear > 0 {
		q += fmt.Sprintf(" %d", subject.DeathYear)
	}
	return q
}

// newDuckDuckGoAdapter runs an open-web search and hands the results to
// the link follower.
func newDuckDuckGoAdapter(direct *fetch.Direct, follower LinkFollower) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(deathQuery(subject))

		raw, err := direct.FetchHTML(ctx, searchURL)
		if err != nil {
			return nil, searchURL, err
		}

		results := parseDuckDuckGo(raw)
		if len(results) == 0 {
			return nil, searchURL, fmt.Errorf("no search results for %q", subject.Name)
		}

		return follower.Follow(ctx, subject, results), searchURL, nil
	}

	return newAdapter(
		"duckduckgo", model.ProviderWebSearch, CostTierFree, 0,
		model.TierTertiary, 0.30, 0.65,
		4*time.Second, 20*time.Second,
		nil, perform,
	)
}

// parseDuckDuckGo walks the HTML-only results page for result anchors
// and snippets.
func parseDuckDuckGo(raw string) []model.SearchResult {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	var results []model.SearchResult
	last := -1

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			if href := attrValue(n, "href"); href != "" {
				target := decodeDDGRedirect(href)
				if target != "" {
					results = append(results, model.SearchResult{
						URL:    target,
						Title:  nodeText(n),
						Domain: hostOf(target),
					})
					last = len(results) - 1
				}
			}
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") && last >= 0 && results[last].Snippet == "" {
			results[last].Snippet = nodeText(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

// decodeDDGRedirect unwraps the uddg redirect parameter; plain URLs pass
// through.
func decodeDDGRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.Contains(parsed.Host, "duckduckgo.com") {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return href
}

type newsRSS struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

// newGoogleNewsAdapter searches the news RSS feed and follows the
// resulting article links.
func newGoogleNewsAdapter(direct *fetch.Direct, follower LinkFollower) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		feedURL := "https://news.google.com/rss/search?q=" + url.QueryEscape(deathQuery(subject)) + "&hl=en-US"

		raw, err := direct.FetchHTML(ctx, feedURL)
		if err != nil {
			return nil, feedURL, err
		}

		var feed newsRSS
		if err := xml.Unmarshal([]byte(raw), &feed); err != nil {
			return nil, feedURL, fmt.Errorf("parse feed: %w", err)
		}

		results := make([]model.SearchResult, 0, len(feed.Channel.Items))
		for _, item := range feed.Channel.Items {
			if item.Link == "" {
				continue
			}
			results = append(results, model.SearchResult{
				URL:     item.Link,
				Title:   item.Title,
				Snippet: item.Description,
				Domain:  hostOf(item.Link),
			})
		}
		if len(results) == 0 {
			return nil, feedURL, fmt.Errorf("no news results for %q", subject.Name)
		}

		return follower.Follow(ctx, subject, results), feedURL, nil
	}

	return newAdapter(
		"googlenews", model.ProviderWebSearch, CostTierFree, 0,
		model.TierTertiary, 0.35, 0.65,
		4*time.Second, 20*time.Second,
		nil, perform,
	)
}

// newBingNewsAdapter harvests outbound article links from the news
// results page.
func newBingNewsAdapter(direct *fetch.Direct, follower LinkFollower) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		searchURL := "https://www.bing.com/news/search?q=" + url.QueryEscape(deathQuery(subject))

		raw, err := direct.FetchHTML(ctx, searchURL)
		if err != nil {
			return nil, searchURL, err
		}

		results := parseOutboundLinks(raw, "bing.com", "microsoft.com")
		if len(results) == 0 {
			return nil, searchURL, fmt.Errorf("no news results for %q", subject.Name)
		}

		return follower.Follow(ctx, subject, results), searchURL, nil
	}

	return newAdapter(
		"bingnews", model.ProviderWebSearch, CostTierFree, 0,
		model.TierTertiary, 0.30, 0.60,
		5*time.Second, 20*time.Second,
		nil, perform,
	)
}

// parseOutboundLinks collects titled external anchors, skipping the
// search engine's own domains.
func parseOutboundLinks(raw string, skipDomains ...string) []model.SearchResult {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var results []model.SearchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attrValue(n, "href")
			title := nodeText(n)
			if strings.HasPrefix(href, "http") && len(title) > 15 && !seen[href] {
				host := hostOf(href)
				skip := host == ""
				for _, d := range skipDomains {
					if strings.HasSuffix(host, d) {
						skip = true
					}
				}
				if !skip {
					seen[href] = true
					results = append(results, model.SearchResult{URL: href, Title: title, Domain: host})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

func hasClass(n *html.Node, className string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == className {
					return true
				}
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
