package model

import "time"

// ExtractionResult holds the circumstances-of-death facts pulled from one
// source (or merged across sources). Empty fields mean "not found", not
// "unknown error".
type ExtractionResult struct {
	Circumstances        string         `json:"circumstances,omitempty"`
	RumoredCircumstances string         `json:"rumored_circumstances,omitempty"`
	CauseOfDeath         string         `json:"cause_of_death,omitempty"`
	DateOfDeath          string         `json:"date_of_death,omitempty"`
	LocationOfDeath      string         `json:"location_of_death,omitempty"`
	NotableFactors       []NotableFactor `json:"notable_factors,omitempty"`
	RelatedPersons       []string       `json:"related_persons,omitempty"`
	AdditionalContext    string         `json:"additional_context,omitempty"`
	Confidence           float64        `json:"confidence"`
	Cost                 float64        `json:"cost"`
}

// Empty reports whether the result carries no extracted facts at all.
func (r *ExtractionResult) Empty() bool {
	return r == nil || (r.Circumstances == "" && r.RumoredCircumstances == "" &&
		r.CauseOfDeath == "" && r.DateOfDeath == "" && r.LocationOfDeath == "" &&
		len(r.NotableFactors) == 0 && r.AdditionalContext == "")
}

// NotableFactor is a short categorical tag for an aspect of a death.
type NotableFactor string

const (
	FactorSuicide      NotableFactor = "suicide"
	FactorOverdose     NotableFactor = "overdose"
	FactorHomicide     NotableFactor = "homicide"
	FactorVehicleCrash NotableFactor = "vehicle_crash"
	FactorOnSet        NotableFactor = "on_set"
	FactorCancer       NotableFactor = "cancer"
	FactorHeartDisease NotableFactor = "heart_disease"
	FactorAccident     NotableFactor = "accident"
	FactorDrowning     NotableFactor = "drowning"
	FactorPlaneCrash   NotableFactor = "plane_crash"
	FactorCOVID        NotableFactor = "covid"
)

// SearchResult is one entry from an open-web search, input to the link
// follower's selection phase.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

// FetchMethod records how a page was ultimately retrieved.
type FetchMethod string

const (
	FetchDirect  FetchMethod = "direct"
	FetchBrowser FetchMethod = "browser"
	FetchArchive FetchMethod = "archive"
)

// FetchedPage is the unified shape returned by every page getter. A
// failed fetch produces a page with empty content and Error set, never a
// hard error, so callers can fall through to the next strategy.
type FetchedPage struct {
	URL           string      `json:"url"`
	Title         string      `json:"title,omitempty"`
	Content       string      `json:"content,omitempty"`
	ContentLength int         `json:"content_length"`
	FetchedAt     time.Time   `json:"fetched_at"`
	Method        FetchMethod `json:"method"`
	Error         string      `json:"error,omitempty"`
	ArchiveURL    string      `json:"archive_url,omitempty"`
}

// Failed reports whether the fetch produced no usable content.
func (p *FetchedPage) Failed() bool {
	return p == nil || p.Error != "" || p.Content == ""
}
