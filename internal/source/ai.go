package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/deadonfilm/deadonfilm/internal/follow"
	"github.com/deadonfilm/deadonfilm/internal/llm"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

const aiSearchSystem = `You are a research assistant locating obituaries and death reports for deceased film and television actors. Answer only with the JSON requested, no prose.`

type aiSearchProposal struct {
	URLs []struct {
		URL    string `json:"url"`
		Title  string `json:"title"`
		Reason string `json:"reason"`
	} `json:"urls"`
}

// newAIWebSearchAdapter asks the model to propose likely obituary URLs
// from its training knowledge, then hands them to the link follower for
// real fetching and extraction. Proposed URLs are never trusted as
// facts; only fetched page content counts.
func newAIWebSearchAdapter(provider llm.Provider, modelName string, follower LinkFollower) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		prompt := fmt.Sprintf(`List up to 5 URLs likely to contain an obituary or death report for the actor %s`, subject.Name)
		if subject.DeathYear > 0 {
			prompt += fmt.Sprintf(" (died %d)", subject.DeathYear)
		}
		if subject.BirthYear > 0 {
			prompt += fmt.Sprintf(" (born %d)", subject.BirthYear)
		}
		prompt += `.
Prefer memorial sites, newspaper obituary pages, and encyclopedia entries.
Respond with JSON: {"urls": [{"url": "...", "title": "...", "reason": "..."}]}`

		completion, err := provider.Complete(ctx, llm.Request{
			Model:     modelName,
			System:    aiSearchSystem,
			Prompt:    prompt,
			MaxTokens: 500,
		})
		if err != nil {
			return nil, "", fmt.Errorf("propose urls: %w", err)
		}

		var proposal aiSearchProposal
		if err := json.Unmarshal([]byte(llm.StripJSONFence(completion.Text)), &proposal); err != nil {
			return nil, "", fmt.Errorf("parse url proposal: %w", err)
		}

		var results []model.SearchResult
		for _, u := range proposal.URLs {
			if !strings.HasPrefix(u.URL, "http") {
				continue
			}
			results = append(results, model.SearchResult{
				URL:     u.URL,
				Title:   u.Title,
				Snippet: u.Reason,
			})
		}
		if len(results) == 0 {
			return nil, "", fmt.Errorf("model proposed no usable urls")
		}

		res := follower.Follow(ctx, subject, results)
		res.Cost += completion.Cost()

		srcURL := ""
		if len(results) > 0 {
			srcURL = results[0].URL
		}
		return res, srcURL, nil
	}

	available := func() bool {
		return provider != nil && provider.IsAvailable(context.Background())
	}

	return newAdapter(
		"ai-websearch", model.ProviderAIAssisted, CostTierAI, 0.01,
		model.TierSecondary, 0.40, 0.75,
		1*time.Second, 60*time.Second,
		available, perform,
	)
}

const aiKnowledgeSystem = `You recall what is publicly known about deaths of film and television actors. Report only well-known facts; if you are not sure, say so. Answer only with the JSON requested.`

type aiKnowledgeAnswer struct {
	Known         bool   `json:"known"`
	Circumstances string `json:"circumstances"`
	CauseOfDeath  string `json:"cause_of_death"`
	DateOfDeath   string `json:"date_of_death"`
	Location      string `json:"location"`
}

// newAIKnowledgeAdapter queries the model's own knowledge with no
// fetching at all. Whatever comes back lands in RumoredCircumstances,
// never Circumstances: unverifiable recall stays quarantined from
// sourced facts. Lowest reliability tier, last resort.
func newAIKnowledgeAdapter(provider llm.Provider, modelName string) Adapter {
	perform := func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error) {
		prompt := fmt.Sprintf("What is publicly known about the death of the actor %s", subject.Name)
		if subject.DeathYear > 0 {
			prompt += fmt.Sprintf(", who died in %d", subject.DeathYear)
		}
		prompt += `?
Respond with JSON: {"known": true/false, "circumstances": "...", "cause_of_death": "...", "date_of_death": "YYYY-MM-DD", "location": "..."}
Set "known" to false unless this was widely reported.`

		completion, err := provider.Complete(ctx, llm.Request{
			Model:     modelName,
			System:    aiKnowledgeSystem,
			Prompt:    prompt,
			MaxTokens: 400,
		})
		if err != nil {
			return nil, "", fmt.Errorf("knowledge query: %w", err)
		}

		var answer aiKnowledgeAnswer
		if err := json.Unmarshal([]byte(llm.StripJSONFence(completion.Text)), &answer); err != nil {
			return nil, "", fmt.Errorf("parse knowledge answer: %w", err)
		}
		if !answer.Known || answer.Circumstances == "" {
			return nil, "", fmt.Errorf("no reliable recall for %q", subject.Name)
		}

		res := &model.ExtractionResult{
			RumoredCircumstances: answer.Circumstances,
			CauseOfDeath:         answer.CauseOfDeath,
			DateOfDeath:          answer.DateOfDeath,
			LocationOfDeath:      answer.Location,
			NotableFactors:       follow.DetectFactors(answer.Circumstances),
			Cost:                 completion.Cost(),
		}
		return res, "", nil
	}

	available := func() bool {
		return provider != nil && provider.IsAvailable(context.Background())
	}

	return newAdapter(
		"ai-knowledge", model.ProviderAIAssisted, CostTierAI, 0.005,
		model.TierTertiary, 0.25, 0.50,
		1*time.Second, 60*time.Second,
		available, perform,
	)
}
