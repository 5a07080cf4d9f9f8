// Package verify fuses independent low-trust signals about one fact into
// a single verdict. Signals are never averaged: strict precedence decides,
// and agreement boosts without letting a lower-priority disagreement erase
// a higher-priority positive.
package verify

import "github.com/deadonfilm/deadonfilm/internal/model"

// GraphVerdict is the primary signal, from a knowledge-graph death-date
// cross-check.
type GraphVerdict string

const (
	GraphVerified    GraphVerdict = "verified"
	GraphUnverified  GraphVerdict = "unverified"
	GraphConflicting GraphVerdict = "conflicting"
)

// DatasetCheck is the secondary signal, from a bulk tabular person
// dataset (IMDb name.basics-style rows).
type DatasetCheck struct {
	// Found means the person has a row at all.
	Found bool

	// HasDeathYear means the row records a death year.
	HasDeathYear bool

	// YearMatches means the row's death year equals the candidate's.
	YearMatches bool
}

// Combine fuses the primary knowledge-graph verdict with the secondary
// dataset check. Conflicting from the primary always wins. Verified from
// the primary always wins, with corroborated reporting whether the
// secondary agrees. Otherwise the secondary breaks the tie: an exact
// year match promotes to secondary-verified; a person the dataset thinks
// is alive is suspicious; no record at all stays unverified.
func Combine(primary GraphVerdict, secondary DatasetCheck) (verdict model.Verdict, corroborated bool) {
	switch primary {
	case GraphConflicting:
		return model.VerdictConflicting, false

	case GraphVerified:
		corroborated = secondary.Found && secondary.HasDeathYear && secondary.YearMatches
		return model.VerdictVerified, corroborated
	}

	// Primary is unverified; the secondary becomes the tiebreaker.
	switch {
	case secondary.Found && secondary.HasDeathYear && secondary.YearMatches:
		return model.VerdictSecondaryVerified, false

	case secondary.Found && !secondary.HasDeathYear:
		return model.VerdictSuspicious, false

	default:
		return model.VerdictUnverified, false
	}
}
