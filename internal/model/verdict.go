package model

// Verdict is the fused verification status for a fact (typically a death
// date). It is only ever produced by combining independent signals, never
// by a single source alone.
type Verdict string

const (
	VerdictVerified          Verdict = "verified"
	VerdictSecondaryVerified Verdict = "secondary_verified"
	VerdictUnverified        Verdict = "unverified"
	VerdictSuspicious        Verdict = "suspicious"
	VerdictConflicting       Verdict = "conflicting"
)
