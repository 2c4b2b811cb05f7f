package vector

import (
	"cmp"
	"slices"
)

// SortResults orders results by ascending distance, then ascending ID, and
// truncates them to topK.
func SortResults(results []QueryResult, topK int) []QueryResult {
	slices.SortStableFunc(results, func(a, b QueryResult) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
