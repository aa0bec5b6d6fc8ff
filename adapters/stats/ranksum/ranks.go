package ranksum

import "sort"

// averageRanks converts values to 1-based ranks, giving tied values the mean of
// the ranks they span. tieSizes holds the size of every tie group (including singletons).
func averageRanks(data []float64) (ranks []float64, tieSizes []int) {
	n := len(data)
	if n == 0 {
		return []float64{}, nil
	}

	type pair struct {
		value float64
		index int
	}

	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks = make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}

		groupSize := j - i
		avgRank := float64(i+1) + float64(groupSize-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		tieSizes = append(tieSizes, groupSize)

		i = j
	}

	return ranks, tieSizes
}

func hasTies(tieSizes []int) bool {
	for _, t := range tieSizes {
		if t > 1 {
			return true
		}
	}
	return false
}
