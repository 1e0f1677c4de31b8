package sampling

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, expected int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{3, 3, 3, 3},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d; want %d", tt.v, tt.lo, tt.hi, got, tt.expected)
		}
	}
}

func TestRandomIntBounds(t *testing.T) {
	r := NewSeededSource(1)
	seen := map[int]bool{}
	for range 2000 {
		v := RandomInt(r, 3, 7)
		require.GreaterOrEqual(t, v, 3)
		require.LessOrEqual(t, v, 7)
		seen[v] = true
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, 50, RandomInt(r, 50, 50))
	assert.Equal(t, 4, RandomInt(r, 4, 1))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected []float64
	}{
		{"empty", []float64{}, []float64{}},
		{"regular", []float64{1, 3}, []float64{0.25, 0.75}},
		{"negative counts as zero", []float64{-5, 1, 1}, []float64{0, 0.5, 0.5}},
		{"all zero is uniform", []float64{0, 0, 0, 0}, []float64{0.25, 0.25, 0.25, 0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.InDelta(t, tt.expected[i], got[i], 1e-9)
			}
		})
	}
}

func TestUsable(t *testing.T) {
	assert.False(t, Usable(nil))
	assert.False(t, Usable([]float64{0, 0}))
	assert.False(t, Usable([]float64{1, -1, 3}))
	assert.True(t, Usable([]float64{0, 2}))
}

func TestWeightedIndexConverges(t *testing.T) {
	r := NewSeededSource(42)
	weights := []float64{1, 2, 7}
	counts := make([]int, len(weights))
	n := 100000
	for range n {
		counts[WeightedIndex(r, weights)]++
	}
	for i, w := range weights {
		freq := float64(counts[i]) / float64(n)
		if math.Abs(freq-w/10) > 0.01 {
			t.Errorf("index %d: frequency %f, expected about %f", i, freq, w/10)
		}
	}
}

func TestWeightedIndexDegeneratesToUniform(t *testing.T) {
	r := NewSeededSource(7)
	counts := make([]int, 4)
	n := 40000
	for range n {
		counts[WeightedIndex(r, []float64{0, 0, 0, 0})]++
	}
	for i, c := range counts {
		freq := float64(c) / float64(n)
		if math.Abs(freq-0.25) > 0.015 {
			t.Errorf("index %d: frequency %f, expected about 0.25", i, freq)
		}
	}
	assert.Equal(t, -1, WeightedIndex(r, nil))
}

func TestWeightedIndexCumulativeWalk(t *testing.T) {
	weights := []float64{1, 1, 2}
	tests := []struct {
		draw     float64
		expected int
	}{
		{0.1, 0},
		{0.25, 0},
		{0.3, 1},
		{0.5, 1},
		{0.51, 2},
		{0.99999, 2},
	}
	for _, tt := range tests {
		r := &Scripted{Floats: []float64{tt.draw}}
		if got := WeightedIndex(r, weights); got != tt.expected {
			t.Errorf("WeightedIndex(draw=%f) = %d; want %d", tt.draw, got, tt.expected)
		}
	}
}

func TestDistinct(t *testing.T) {
	r := NewSeededSource(3)
	for range 500 {
		got := Distinct(r, 3, 5)
		require.Len(t, got, 3)
		seen := map[int]bool{}
		for _, v := range got {
			require.False(t, seen[v], "duplicate index %d in %v", v, got)
			require.True(t, v >= 0 && v < 5)
			seen[v] = true
		}
	}
	assert.Len(t, Distinct(r, 10, 2), 2)
}

func TestUniform(t *testing.T) {
	r := NewSeededSource(5)
	for range 1000 {
		v := Uniform(r, 1.5, 3)
		require.True(t, v >= 1.5 && v < 3)
	}
	assert.Equal(t, 2.0, Uniform(r, 2, 2))
}

func TestNewSourceConcurrent(t *testing.T) {
	r := NewSource()
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				v := RandomInt(r, 1, 6)
				assert.True(t, v >= 1 && v <= 6)
			}
		}()
	}
	wg.Wait()
}
