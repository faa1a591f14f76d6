package exams

import (
	"math"
	"math/rand/v2"
	"slices"
)

// intSource is the part of *rand.Rand the sampler needs.
type intSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// sampleQuestionIDs picks n ids uniformly without replacement using a
// partial Fisher-Yates shuffle. Fewer candidates than n yields all of them.
func sampleQuestionIDs(candidates []int64, n int, src intSource) []int64 {
	pool := slices.Clone(candidates)
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
