package llm

import "strings"

// Published per-million-token rates in USD. Unknown models fall back to
// the gpt-4o-mini rate so cost accounting stays conservative rather than
// silently free.
type rate struct {
	input  float64
	output float64
}

var tokenRates = map[string]rate{
	"gpt-4o-mini":  {input: 0.15, output: 0.60},
	"gpt-4o":       {input: 2.50, output: 10.00},
	"gpt-4.1-mini": {input: 0.40, output: 1.60},
	"gpt-4.1":      {input: 2.00, output: 8.00},
	"o3-mini":      {input: 1.10, output: 4.40},
}

var fallbackRate = rate{input: 0.15, output: 0.60}

// TokenCost returns the dollar cost for a completion's token usage.
// Unknown model names bill at the fallback rate so accounting stays
// conservative; free local endpoints are zeroed at the Completion level,
// not here.
func TokenCost(mdl string, usage Usage) float64 {
	if usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		return 0
	}

	r, ok := lookupRate(mdl)
	if !ok {
		r = fallbackRate
	}

	return float64(usage.PromptTokens)/1e6*r.input +
		float64(usage.CompletionTokens)/1e6*r.output
}

func lookupRate(mdl string) (rate, bool) {
	mdl = strings.ToLower(mdl)
	if r, ok := tokenRates[mdl]; ok {
		return r, true
	}
	// Dated snapshots like gpt-4o-mini-2024-07-18 share the base rate.
	// Longest prefix wins so gpt-4o-mini variants never bill at gpt-4o
	// rates.
	best := ""
	var found rate
	for name, r := range tokenRates {
		if strings.HasPrefix(mdl, name+"-") && len(name) > len(best) {
			best = name
			found = r
		}
	}
	return found, best != ""
}
