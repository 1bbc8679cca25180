package batch

import (
	"cmp"
	"slices"
)

// summarize orders results by score desc then name, assigns dense ranks
// to the successful ones and counts outcomes. Failures sort last.
func summarize(results []Result) Summary {
	slices.SortStableFunc(results, func(a, b Result) int {
		if fa, fb := a.Error != "", b.Error != ""; fa != fb {
			if fa {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	s := Summary{Total: len(results), Results: results}
	rank, total := 0, 0
	for i := range results {
		r := &results[i]
		if r.Error != "" {
			s.Failed++
			continue
		}
		if i == 0 || results[i-1].Score != r.Score {
			rank++
		}
		r.Rank = rank
		s.Succeeded++
		total += r.Score
		if r.Duplicate {
			s.Duplicates++
		}
	}
	if s.Succeeded > 0 {
		s.MeanScore = float64(total) / float64(s.Succeeded)
	}
	return s
}
