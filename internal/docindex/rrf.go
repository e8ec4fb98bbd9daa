package docindex

// rrfK is the reciprocal-rank-fusion rank offset; k=60 is the value from
// the original RRF paper and the one pinned by spec §4.6.
const rrfK = 60

// fuseRRF combines two rank-ordered id lists (vector-channel first, then
// bm25-channel) into one rrf(doc) = w_vector/(k+r_vector) + w_bm25/(k+r_bm25)
// score per id, defined for an id missing from a channel as if it were
// ranked beyond the end of that channel's list (contributes 0 from it).
func fuseRRF(vectorRanked, bm25Ranked []string, vectorWeight, bm25Weight float64) map[string]float64 {
	scores := map[string]float64{}
	for rank, id := range vectorRanked {
		scores[id] += vectorWeight / float64(rrfK+rank+1)
	}
	for rank, id := range bm25Ranked {
		scores[id] += bm25Weight / float64(rrfK+rank+1)
	}
	return scores
}
