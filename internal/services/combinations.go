package services

// forEachCombination calls fn with every k-combination of {0..n-1} as an
// ascending index tuple, in lexicographic order. The tuple is reused between
// calls. Returning false from fn stops the iteration.
func forEachCombination(n, k int, fn func(idx []int) bool) {
	if k <= 0 || k > n {
		return
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for {
		if !fn(idx) {
			return
		}

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}

		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
