package verify

import (
	"testing"

	"github.com/deadonfilm/deadonfilm/internal/model"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name             string
		primary          GraphVerdict
		secondary        DatasetCheck
		wantVerdict      model.Verdict
		wantCorroborated bool
	}{
		{
			name:        "conflicting primary always wins",
			primary:     GraphConflicting,
			secondary:   DatasetCheck{Found: true, HasDeathYear: true, YearMatches: true},
			wantVerdict: model.VerdictConflicting,
		},
		{
			name:             "verified primary with agreeing secondary",
			primary:          GraphVerified,
			secondary:        DatasetCheck{Found: true, HasDeathYear: true, YearMatches: true},
			wantVerdict:      model.VerdictVerified,
			wantCorroborated: true,
		},
		{
			name:        "verified primary with silent secondary",
			primary:     GraphVerified,
			secondary:   DatasetCheck{},
			wantVerdict: model.VerdictVerified,
		},
		{
			name:        "verified primary with disagreeing year",
			primary:     GraphVerified,
			secondary:   DatasetCheck{Found: true, HasDeathYear: true, YearMatches: false},
			wantVerdict: model.VerdictVerified,
		},
		{
			name:        "unverified primary promoted by year match",
			primary:     GraphUnverified,
			secondary:   DatasetCheck{Found: true, HasDeathYear: true, YearMatches: true},
			wantVerdict: model.VerdictSecondaryVerified,
		},
		{
			name:        "dataset thinks the person is alive",
			primary:     GraphUnverified,
			secondary:   DatasetCheck{Found: true, HasDeathYear: false},
			wantVerdict: model.VerdictSuspicious,
		},
		{
			name:        "no dataset record stays unverified",
			primary:     GraphUnverified,
			secondary:   DatasetCheck{Found: false},
			wantVerdict: model.VerdictUnverified,
		},
		{
			name:        "year mismatch stays unverified",
			primary:     GraphUnverified,
			secondary:   DatasetCheck{Found: true, HasDeathYear: true, YearMatches: false},
			wantVerdict: model.VerdictUnverified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, corroborated := Combine(tt.primary, tt.secondary)
			if verdict != tt.wantVerdict {
				t.Errorf("Combine(%v, %+v) verdict = %v, want %v", tt.primary, tt.secondary, verdict, tt.wantVerdict)
			}
			if corroborated != tt.wantCorroborated {
				t.Errorf("Combine(%v, %+v) corroborated = %v, want %v", tt.primary, tt.secondary, corroborated, tt.wantCorroborated)
			}
		})
	}
}

func TestSeasonDataUnreliable(t *testing.T) {
	tests := []struct {
		name       string
		maxInOne   int
		seasons    int
		refSeasons int
		want       bool
	}{
		{name: "500 episodes in one season is glitched", maxInOne: 500, seasons: 5, refSeasons: 5, want: true},
		{name: "499 episodes is still plausible", maxInOne: 499, seasons: 5, refSeasons: 5, want: false},
		{name: "one season against ten reference seasons", maxInOne: 22, seasons: 1, refSeasons: 10, want: true},
		{name: "one season against nine reference seasons", maxInOne: 22, seasons: 1, refSeasons: 9, want: false},
		{name: "two seasons against ten reference seasons", maxInOne: 22, seasons: 2, refSeasons: 10, want: false},
		{name: "ordinary show", maxInOne: 24, seasons: 8, refSeasons: 8, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SeasonDataUnreliable(tt.maxInOne, tt.seasons, tt.refSeasons)
			if got != tt.want {
				t.Errorf("SeasonDataUnreliable(%d, %d, %d) = %v, want %v",
					tt.maxInOne, tt.seasons, tt.refSeasons, got, tt.want)
			}
		})
	}
}
