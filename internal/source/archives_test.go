package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deadonfilm/deadonfilm/internal/fetch"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

func testDirect() *fetch.Direct {
	return fetch.NewDirect(model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent",
		MaxBodyBytes: 1 << 20,
	}, nil)
}

func TestNameSlug(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"John Doe", "john-doe"},
		{"  Mary Jane O'Brien ", "mary-jane-obrien"},
		{"Jean-Claude Martin", "jean-claude-martin"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := nameSlug(tt.name); got != tt.expected {
			t.Errorf("nameSlug(%q): expected %q, got %q", tt.name, tt.expected, got)
		}
	}
}

func TestCDXSnapshotParsesNewestCapture(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			["urlkey","timestamp","original","mimetype","statuscode","digest","length"],
			["com,variety)/obituaries/john-doe","20210314120000","https://variety.com/obituaries/john-doe/","text/html","200","ABC","12345"]
		]`))
	}))
	defer server.Close()

	rows := fetchCDXRows(t, server.URL)
	if rows == "" {
		t.Fatal("Expected a snapshot URL")
	}
	expected := "https://web.archive.org/web/20210314120000/https://variety.com/obituaries/john-doe/"
	if rows != expected {
		t.Errorf("Expected %q, got %q", expected, rows)
	}
}

func TestCDXSnapshotEmptyIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	if got := fetchCDXRows(t, server.URL); got != "" {
		t.Errorf("Expected no snapshot for empty index, got %q", got)
	}
}

// fetchCDXRows points cdxSnapshot's query at a stub index server.
func fetchCDXRows(t *testing.T, indexURL string) string {
	t.Helper()

	direct := testDirect()

	snapshot, err := cdxSnapshotAt(context.Background(), direct, indexURL, "https://variety.com/obituaries/john-doe/")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return snapshot
}

func TestLastCreditYearSkipsGlitchedSeasons(t *testing.T) {
	credits := tmdbTVCreditsResponse{}
	credits.Cast = []struct {
		Name         string `json:"name"`
		EpisodeCount int    `json:"episode_count"`
		FirstAirDate string `json:"first_air_date"`
	}{
		{Name: "Normal Show", EpisodeCount: 24, FirstAirDate: "1988-09-01"},
		{Name: "Glitched Show", EpisodeCount: 700, FirstAirDate: "2015-01-01"},
	}

	if got := lastCreditYear(credits); got != 1988 {
		t.Errorf("Expected glitched credit skipped, year 1988, got %d", got)
	}
}
