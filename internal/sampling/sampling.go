// Package sampling provides the small set of random draws used to
// synthesize answers: uniform integers, probability normalization and
// weighted index selection.
package sampling

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is the randomness needed by the draws in this package.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// NewSource returns a Source seeded from the current time. It is safe for
// concurrent use.
func NewSource() Source {
	seed := uint64(time.Now().UnixNano())
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// NewSeededSource returns a deterministic Source, mostly useful in tests.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Clamp limits v to the interval [lo, hi].
func Clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// RandomInt draws a uniform integer from [lo, hi]. If hi <= lo, lo is returned.
func RandomInt(r Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// Uniform draws a float from [lo, hi). If hi <= lo, lo is returned.
func Uniform(r Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}

// Normalize scales w so that its entries sum up to 1. Negative entries
// count as 0. If nothing is left to normalize every entry gets the same
// share.
func Normalize(w []float64) []float64 {
	out := make([]float64, len(w))
	if len(w) == 0 {
		return out
	}
	sum := 0.0
	for _, v := range w {
		sum += max(v, 0)
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float64(len(w))
		}
		return out
	}
	for i, v := range w {
		out[i] = max(v, 0) / sum
	}
	return out
}

// Usable reports whether w is a well formed weight vector, ie non-empty,
// without negative entries and with a positive sum.
func Usable(w []float64) bool {
	if len(w) == 0 {
		return false
	}
	sum := 0.0
	for _, v := range w {
		if v < 0 {
			return false
		}
		sum += v
	}
	return sum > 0
}

// WeightedIndex draws an index of w with probability proportional to its
// weight. It returns -1 for an empty vector.
func WeightedIndex(r Source, w []float64) int {
	if len(w) == 0 {
		return -1
	}
	normalized := Normalize(w)
	target := r.Float64()
	cumulative := 0.0
	for i, p := range normalized {
		cumulative += p
		if cumulative >= target {
			return i
		}
	}
	// floating point rounding
	return len(normalized) - 1
}

// Distinct draws n distinct indices from [0, size) uniformly without
// replacement, in draw order.
func Distinct(r Source, n, size int) []int {
	n = Clamp(n, 0, size)
	pool := make([]int, size)
	for i := range pool {
		pool[i] = i
	}
	result := make([]int, 0, n)
	for i := range n {
		j := RandomInt(r, i, size-1)
		pool[i], pool[j] = pool[j], pool[i]
		result = append(result, pool[i])
	}
	return result
}
