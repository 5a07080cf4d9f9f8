package follow

import (
	"testing"

	"github.com/deadonfilm/deadonfilm/internal/model"
)

func TestScoreResult_ClampedAndPure(t *testing.T) {
	loaded := model.SearchResult{
		URL:     "https://www.legacy.com/us/obituaries/name/someone",
		Title:   "Obituary: actor dies at 82, cause of death revealed",
		Snippet: "He passed away after a battle with cancer; the funeral and memorial service follow.",
	}

	first := ScoreResult(loaded)
	if first < 0 || first > 100 {
		t.Errorf("Expected score in [0,100], got %d", first)
	}
	if first != 100 {
		t.Errorf("Expected keyword-dense obituary to clamp at 100, got %d", first)
	}

	// Same input, same output: no hidden state.
	for i := 0; i < 3; i++ {
		if again := ScoreResult(loaded); again != first {
			t.Errorf("Expected pure function, got %d then %d", first, again)
		}
	}

	bare := model.SearchResult{URL: "https://example.com/page", Title: "A page"}
	if got := ScoreResult(bare); got != 50 {
		t.Errorf("Expected unknown domain with no keywords to score 50, got %d", got)
	}
}

func TestScoreResult_DomainReputation(t *testing.T) {
	legacy := ScoreResult(model.SearchResult{URL: "https://legacy.com/obit", Title: "x y z a b"})
	social := ScoreResult(model.SearchResult{URL: "https://instagram.com/p/abc", Title: "x y z a b"})

	if legacy <= social {
		t.Errorf("Expected obituary archive (%d) to outrank social media (%d)", legacy, social)
	}
}

func TestHeuristicSelect_MaxLinksBound(t *testing.T) {
	results := []model.SearchResult{
		{URL: "https://legacy.com/a", Title: "obituary"},
		{URL: "https://nytimes.com/b", Title: "died"},
		{URL: "https://variety.com/c", Title: "cause of death"},
		{URL: "https://bbc.com/d", Title: "death"},
	}

	for _, maxLinks := range []int{1, 2, 3, 10} {
		got := HeuristicSelect(results, maxLinks, nil, nil)
		if len(got) > maxLinks {
			t.Errorf("maxLinks=%d: got %d URLs", maxLinks, len(got))
		}
	}

	if got := HeuristicSelect(results, 0, nil, nil); got != nil {
		t.Errorf("Expected no URLs for maxLinks=0, got %v", got)
	}
}

func TestHeuristicSelect_BlockedDomainNeverReturned(t *testing.T) {
	results := []model.SearchResult{
		{URL: "https://badsite.example/a", Title: "obituary cause of death died"},
		{URL: "https://nytimes.com/b", Title: "brief note"},
	}

	got := HeuristicSelect(results, 5, []string{"badsite.example"}, nil)

	for _, u := range got {
		if u == "https://badsite.example/a" {
			t.Errorf("Blocked domain returned: %v", got)
		}
	}
	if len(got) != 1 || got[0] != "https://nytimes.com/b" {
		t.Errorf("Expected only the unblocked URL, got %v", got)
	}
}

func TestHeuristicSelect_DefaultBlocklist(t *testing.T) {
	results := []model.SearchResult{
		{URL: "https://www.pinterest.com/pin/123", Title: "obituary cause of death died"},
		{URL: "https://en.wikipedia.org/wiki/Someone", Title: "Someone"},
	}

	got := HeuristicSelect(results, 5, nil, nil)

	if len(got) != 1 || got[0] != "https://en.wikipedia.org/wiki/Someone" {
		t.Errorf("Expected default blocklist to drop pinterest, got %v", got)
	}
}

func TestHeuristicSelect_AllowlistReplacesBlocklist(t *testing.T) {
	results := []model.SearchResult{
		{URL: "https://www.pinterest.com/pin/123", Title: "obituary"},
		{URL: "https://en.wikipedia.org/wiki/Someone", Title: "Someone died"},
	}

	// Allowlisting pinterest overrides the default blocklist and excludes
	// everything else.
	got := HeuristicSelect(results, 5, nil, []string{"pinterest.com"})

	if len(got) != 1 || got[0] != "https://www.pinterest.com/pin/123" {
		t.Errorf("Expected allowlist to admit only pinterest, got %v", got)
	}
}

func TestHeuristicSelect_RanksReputationFirst(t *testing.T) {
	results := []model.SearchResult{
		{URL: "https://twitter.com/u/status/1", Title: "he died obituary"},
		{URL: "https://legacy.com/obituaries/name", Title: "he died obituary"},
	}

	got := HeuristicSelect(results, 1, nil, nil)

	if len(got) != 1 || got[0] != "https://legacy.com/obituaries/name" {
		t.Errorf("Expected the obituary archive to win the single slot, got %v", got)
	}
}
