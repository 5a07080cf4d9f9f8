// Package follow implements the three-phase link-following pipeline used
// by open-web-search adapters: select the most promising search results,
// fetch them with escalating anti-block fallbacks, and extract structured
// circumstances-of-death facts.
package follow

import (
	"strings"

	"github.com/deadonfilm/deadonfilm/internal/model"
)

var deathKeywords = []string{
	"died", "death", "dies", "dead", "passed away", "obituary",
	"funeral", "cause of death", "killed", "fatal", "survived by",
	"in memoriam", "memorial service",
}

var circumstanceKeywords = []string{
	"hospital", "illness", "diagnosed", "battle with", "complications",
	"accident", "crash", "overdose", "suicide", "cancer", "heart attack",
	"hospice", "injuries", "collapsed", "found dead",
}

// Keyword groups that emit notable-factor tags. Tested against the full
// combined text, independent of sentence matching.
var factorGroups = []struct {
	factor   model.NotableFactor
	keywords []string
}{
	{model.FactorSuicide, []string{"suicide", "took his own life", "took her own life", "self-inflicted"}},
	{model.FactorOverdose, []string{"overdose", "drug toxicity", "acute intoxication"}},
	{model.FactorHomicide, []string{"murdered", "homicide", "shot dead", "stabbed", "killed by"}},
	{model.FactorVehicleCrash, []string{"car crash", "car accident", "motorcycle accident", "traffic collision", "automobile accident"}},
	{model.FactorOnSet, []string{"on set", "on the set", "during filming", "while filming"}},
	{model.FactorCancer, []string{"cancer", "leukemia", "lymphoma", "brain tumor"}},
	{model.FactorHeartDisease, []string{"heart attack", "cardiac arrest", "heart failure", "heart disease"}},
	{model.FactorDrowning, []string{"drowned", "drowning"}},
	{model.FactorPlaneCrash, []string{"plane crash", "helicopter crash", "aviation accident"}},
	{model.FactorCOVID, []string{"covid", "coronavirus"}},
	{model.FactorAccident, []string{"accidental fall", "fell from", "freak accident"}},
}

// DetectFactors scans text for each factor group.
func DetectFactors(text string) []model.NotableFactor {
	lower := strings.ToLower(text)
	var factors []model.NotableFactor
	for _, group := range factorGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				factors = append(factors, group.factor)
				break
			}
		}
	}
	return factors
}

func countKeywordHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}
