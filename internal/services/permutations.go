package services

import (
	"fmt"
	"sync"
)

// MaxSubsetSize is the largest number of orders a single delivery may carry.
const MaxSubsetSize = 8

// Permutations is a lazily filled table of index orderings for path lengths
// 1..MaxSubsetSize. One instance is owned by a Dispatcher and shared read-only
// by its enumeration units.
type Permutations struct {
	once   [MaxSubsetSize + 1]sync.Once
	tables [MaxSubsetSize + 1][][]int
}

func NewPermutations() *Permutations { return &Permutations{} }

// Of returns all k! orderings of {0..k-1} in lexicographic order.
// The returned slices must not be modified.
func (p *Permutations) Of(k int) [][]int {
	if k < 1 || k > MaxSubsetSize {
		panic(fmt.Sprintf("permutations: size %d out of range 1..%d", k, MaxSubsetSize))
	}
	p.once[k].Do(func() { p.tables[k] = lexicographicPermutations(k) })
	return p.tables[k]
}

func lexicographicPermutations(k int) [][]int {
	total := 1
	for i := 2; i <= k; i++ {
		total *= i
	}

	// One backing array keeps the table to a single allocation.
	backing := make([]int, total*k)
	out := make([][]int, 0, total)

	cur := make([]int, k)
	for i := range cur {
		cur[i] = i
	}

	for n := 0; n < total; n++ {
		row := backing[n*k : (n+1)*k : (n+1)*k]
		copy(row, cur)
		out = append(out, row)

		if !nextPermutation(cur) {
			break
		}
	}
	return out
}

func nextPermutation(a []int) bool {
	i := len(a) - 2
	for i >= 0 && a[i] >= a[i+1] {
		i--
	}
	if i < 0 {
		return false
	}

	j := len(a) - 1
	for a[j] <= a[i] {
		j--
	}
	a[i], a[j] = a[j], a[i]

	for l, r := i+1, len(a)-1; l < r; l, r = l+1, r-1 {
		a[l], a[r] = a[r], a[l]
	}
	return true
}
