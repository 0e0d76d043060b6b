package fabmap

// Match is one row of a compare result: the query that produced it, the
// place it scores (PlaceIdx == -1 denotes the new-place hypothesis), the
// raw log-likelihood the variant computed, and the normalized posterior
// probability after smoothing. For a single query the Match values across
// its records sum to 1.
type Match struct {
	QueryIdx   int
	PlaceIdx   int
	Likelihood float64
	Match      float64
}

func newMatch(queryIdx, placeIdx int, likelihood float64) Match {
	return Match{QueryIdx: queryIdx, PlaceIdx: placeIdx, Likelihood: likelihood}
}
