package ranksum

// exactDistribution returns the null frequency of every W = 0..m*n for two
// samples of sizes m and n without ties, and the total number of arrangements.
//
// counts[k][s] is the number of k-subsets of {1..N} whose ranks sum to s,
// built one rank at a time.
func exactDistribution(m, n int) (freq []float64, total float64) {
	N := m + n
	maxSum := 0
	for r := N - m + 1; r <= N; r++ {
		maxSum += r
	}

	counts := make([][]float64, m+1)
	for k := range counts {
		counts[k] = make([]float64, maxSum+1)
	}
	counts[0][0] = 1

	for r := 1; r <= N; r++ {
		upper := m
		if r < upper {
			upper = r
		}
		for k := upper; k >= 1; k-- {
			row, prev := counts[k], counts[k-1]
			for s := maxSum; s >= r; s-- {
				if prev[s-r] != 0 {
					row[s] += prev[s-r]
				}
			}
		}
	}

	offset := m * (m + 1) / 2
	freq = make([]float64, m*n+1)
	for w := range freq {
		freq[w] = counts[m][w+offset]
		total += freq[w]
	}
	return freq, total
}

// lowerTail returns P(W <= w)
func lowerTail(freq []float64, total float64, w int) float64 {
	if w < 0 {
		return 0
	}
	acc := 0.0
	for k := 0; k <= w && k < len(freq); k++ {
		acc += freq[k]
	}
	return acc / total
}

// upperTail returns P(W >= w)
func upperTail(freq []float64, total float64, w int) float64 {
	if w < 0 {
		w = 0
	}
	acc := 0.0
	for k := w; k < len(freq); k++ {
		acc += freq[k]
	}
	return acc / total
}
