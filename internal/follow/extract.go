package follow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/llm"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

const (
	// perPageCap bounds each page's contribution to the combined text.
	perPageCap = 3000

	// minPageContent filters out trivially short pages before extraction.
	minPageContent = 100

	// maxMatchedSentences caps the circumstances narrative.
	maxMatchedSentences = 5

	// estExtractionCost is the conservative estimate used by the hard
	// pre-call budget check before an AI extraction call.
	estExtractionCost = 0.02
)

// Extractor turns fetched pages into one ExtractionResult, via an AI
// strategy that falls back to the zero-cost regex strategy.
type Extractor struct {
	provider llm.Provider
	useAI    bool
	log      zerolog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(provider llm.Provider, useAI bool, log zerolog.Logger) *Extractor {
	return &Extractor{provider: provider, useAI: useAI, log: log}
}

// Extract combines non-error pages and extracts structured facts.
// budgetLeft is the remaining per-subject spend; when the estimated AI
// cost would exceed it, extraction goes straight to the regex path.
func (e *Extractor) Extract(ctx context.Context, subject *model.Subject, pages []model.FetchedPage, budgetLeft float64) *model.ExtractionResult {
	combined := combinePages(pages)
	if combined == "" {
		return &model.ExtractionResult{}
	}

	if e.useAI && e.provider != nil {
		if budgetLeft < estExtractionCost {
			e.log.Debug().Float64("budget_left", budgetLeft).Msg("skipping ai extraction, budget too low")
		} else if res, err := e.aiExtract(ctx, subject, combined); err == nil {
			return res
		} else {
			e.log.Debug().Err(err).Msg("ai extraction fell back to regex")
		}
	}

	return ExtractFromText(combined, subject)
}

// combinePages concatenates usable page content, each capped in length
// and labelled by its source URL.
func combinePages(pages []model.FetchedPage) string {
	var buf strings.Builder
	for _, p := range pages {
		if p.Failed() || len(p.Content) < minPageContent {
			continue
		}
		content := p.Content
		if len(content) > perPageCap {
			content = content[:perPageCap]
		}
		fmt.Fprintf(&buf, "Source: %s\n%s\n\n", p.URL, content)
	}
	return strings.TrimSpace(buf.String())
}

type aiExtractionResponse struct {
	Circumstances        string   `json:"circumstances"`
	RumoredCircumstances string   `json:"rumored_circumstances"`
	CauseOfDeath         string   `json:"cause_of_death"`
	DateOfDeath          string   `json:"date_of_death"`
	LocationOfDeath      string   `json:"location_of_death"`
	NotableFactors       []string `json:"notable_factors"`
	RelatedPersons       []string `json:"related_persons"`
	AdditionalContext    string   `json:"additional_context"`
	Confidence           float64  `json:"confidence"`
}

func (e *Extractor) aiExtract(ctx context.Context, subject *model.Subject, combined string) (*model.ExtractionResult, error) {
	prompt := fmt.Sprintf(`Extract the circumstances of death of %s from the text below. Use only what the text states; leave fields empty when the text does not say.

Respond with only a JSON object:
{"circumstances": "", "rumored_circumstances": "", "cause_of_death": "", "date_of_death": "YYYY-MM-DD or empty", "location_of_death": "", "notable_factors": [], "related_persons": [], "additional_context": "", "confidence": 0.0}

notable_factors may include: suicide, overdose, homicide, vehicle_crash, on_set, cancer, heart_disease, accident, drowning, plane_crash, covid.

Text:
%s`, subject.Name, combined)

	completion, err := e.provider.Complete(ctx, llm.Request{
		System:    "You extract structured facts about deaths of public figures from news text.",
		Prompt:    prompt,
		MaxTokens: 600,
	})
	if err != nil {
		return nil, fmt.Errorf("ai extraction: %w", err)
	}

	var parsed aiExtractionResponse
	if err := json.Unmarshal([]byte(llm.StripJSONFence(completion.Text)), &parsed); err != nil {
		return nil, fmt.Errorf("parse ai extraction: %w", err)
	}

	factors := make([]model.NotableFactor, 0, len(parsed.NotableFactors))
	for _, f := range parsed.NotableFactors {
		factors = append(factors, model.NotableFactor(f))
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &model.ExtractionResult{
		Circumstances:        parsed.Circumstances,
		RumoredCircumstances: parsed.RumoredCircumstances,
		CauseOfDeath:         parsed.CauseOfDeath,
		DateOfDeath:          parsed.DateOfDeath,
		LocationOfDeath:      parsed.LocationOfDeath,
		NotableFactors:       factors,
		RelatedPersons:       parsed.RelatedPersons,
		AdditionalContext:    parsed.AdditionalContext,
		Confidence:           confidence,
		Cost:                 completion.Cost(),
	}, nil
}

// ExtractFromText is the zero-cost regex strategy: keep sentences that
// contain a death keyword and plausibly refer to the subject, join up to
// five as the circumstances, and tag notable factors from the full text.
func ExtractFromText(text string, subject *model.Subject) *model.ExtractionResult {
	sentences := splitSentences(text)

	first := strings.ToLower(subject.FirstName())
	last := strings.ToLower(subject.LastName())

	var matched []string
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)

		if countKeywordHits(lower, deathKeywords) == 0 {
			continue
		}

		named := (first != "" && strings.Contains(lower, first)) ||
			(last != "" && strings.Contains(lower, last))
		// Pronoun proxy only stands in while no named match exists yet;
		// once a sentence names the subject, unnamed sentences are too
		// likely to be about someone else on the page.
		proxy := len(matched) == 0 && refersByProxy(lower)

		if !named && !proxy {
			continue
		}

		matched = append(matched, strings.TrimSpace(sentence))
		if len(matched) >= maxMatchedSentences {
			break
		}
	}

	factors := DetectFactors(text)

	if len(matched) == 0 && len(factors) == 0 {
		return &model.ExtractionResult{}
	}

	confidence := 0.2 + 0.1*float64(len(matched))
	if confidence > 0.6 {
		confidence = 0.6
	}

	return &model.ExtractionResult{
		Circumstances:  strings.Join(matched, " "),
		NotableFactors: factors,
		Confidence:     confidence,
	}
}

var proxyMarkers = []string{"he ", "she ", "they ", "his ", "her ", "their ", "the actor", "the actress", "the performer"}

func refersByProxy(lowerSentence string) bool {
	for _, marker := range proxyMarkers {
		if strings.Contains(lowerSentence, marker) {
			return true
		}
	}
	return false
}

// splitSentences breaks text on terminators, keeping sentences of
// plausible length.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 20 && len(sentence) <= 500 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()

	return sentences
}
