package model

import "time"

// Subject is the person being enriched. It is constructed by the caller
// from storage and is never mutated by the enrichment engine.
type Subject struct {
	PersonID   string  `json:"person_id"`            // IMDb-style identifier (nm0000123)
	TMDBID     int     `json:"tmdb_id,omitempty"`    // Movie-database identifier, 0 if unknown
	Name       string  `json:"name"`                 // Full name
	BirthYear  int     `json:"birth_year,omitempty"` // 0 if unknown
	DeathYear  int     `json:"death_year,omitempty"` // 0 if unknown
	DeathDate  string  `json:"death_date,omitempty"` // ISO date when known (YYYY-MM-DD)
	Cause      string  `json:"cause,omitempty"`      // Existing cause-of-death field, if any
	Popularity float64 `json:"popularity,omitempty"` // Used elsewhere for prioritization
}

// FirstName returns the first whitespace-separated token of the name.
func (s *Subject) FirstName() string {
	return nameToken(s.Name, 0)
}

// LastName returns the last whitespace-separated token of the name.
func (s *Subject) LastName() string {
	return nameToken(s.Name, -1)
}

// ProviderType tags the kind of data provider behind a source adapter.
type ProviderType string

const (
	ProviderEncyclopedia   ProviderType = "encyclopedia"    // Wikipedia, Britannica
	ProviderObituaryIndex  ProviderType = "obituary_index"  // Legacy, FindAGrave
	ProviderWebSearch      ProviderType = "web_search"      // Open web search feeding the link follower
	ProviderNewsArchive    ProviderType = "news_archive"    // Newspaper archives, free or paid
	ProviderScreenCredits  ProviderType = "screen_credits"  // Film/TV credit databases
	ProviderAIAssisted     ProviderType = "ai_assisted"     // Chat-completion backed lookups
)

// ReliabilityTier ranks a provider's general trustworthiness.
// Lower is better; tier 1 sources win confidence ties.
type ReliabilityTier int

const (
	TierUnranked  ReliabilityTier = 0
	TierPrimary   ReliabilityTier = 1 // Obituary archives, major encyclopedias
	TierSecondary ReliabilityTier = 2 // News archives, entertainment trades
	TierTertiary  ReliabilityTier = 3 // Open web, AI-assisted lookups
)

func (t ReliabilityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unranked"
	}
}

// SourceEntry is the audit record for one adapter invocation. One is
// produced per lookup, success or not; a failed lookup carries
// confidence 0 and whatever cost the attempt incurred.
type SourceEntry struct {
	Name       string          `json:"name"`
	Provider   ProviderType    `json:"provider"`
	Tier       ReliabilityTier `json:"tier"`
	Confidence float64         `json:"confidence"`
	URL        string          `json:"url,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Latency    time.Duration   `json:"latency"`
	Cost       float64         `json:"cost"`
	Succeeded  bool            `json:"succeeded"`
	Error      string          `json:"error,omitempty"` // Human-readable failure, empty on success
}

func nameToken(name string, idx int) string {
	var tokens []string
	start := -1
	for i, r := range name {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				tokens = append(tokens, name[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, name[start:])
	}
	if len(tokens) == 0 {
		return ""
	}
	if idx < 0 {
		return tokens[len(tokens)-1]
	}
	if idx >= len(tokens) {
		return ""
	}
	return tokens[idx]
}
