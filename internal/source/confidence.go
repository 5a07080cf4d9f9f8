package source

import "github.com/deadonfilm/deadonfilm/internal/model"

// scoreConfidence computes per-provider confidence from signal richness:
// the provider's base trust, boosted additively for longer text and
// structured fields, capped by the provider's ceiling. A provider that
// structurally cannot supply circumstances (screen credits) caps low no
// matter how rich its result looks.
func scoreConfidence(base float64, res *model.ExtractionResult, cap float64) float64 {
	c := base

	if len(res.Circumstances) > 200 {
		c += 0.10
	}
	if len(res.Circumstances) > 500 {
		c += 0.05
	}
	if res.LocationOfDeath != "" {
		c += 0.05
	}
	if res.CauseOfDeath != "" {
		c += 0.05
	}
	if len(res.NotableFactors) > 0 {
		c += 0.05
	}

	if c > cap {
		c = cap
	}
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}
