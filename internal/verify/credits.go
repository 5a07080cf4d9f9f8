package verify

// SeasonDataUnreliable flags glitched TV credit data. A single season
// credited with 500+ episodes is a known aggregation bug, and a show
// reduced to one season when the reference database lists ten or more is
// a truncated import; either way the credit counts cannot be trusted for
// confidence scoring.
func SeasonDataUnreliable(maxEpisodesInOneSeason, seasonCount, referenceSeasonCount int) bool {
	if maxEpisodesInOneSeason >= 500 {
		return true
	}
	return seasonCount == 1 && referenceSeasonCount >= 10
}
