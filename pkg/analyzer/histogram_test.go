package analyzer

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram_Empty(t *testing.T) {
	h := NewHistogram()

	assert.Equal(t, uint64(0), h.Count())
	_, ok := h.Min()
	assert.False(t, ok)
	_, ok = h.Max()
	assert.False(t, ok)
	_, ok = h.Mean()
	assert.False(t, ok)
	for _, p := range []float64{0, 0.5, 0.99, 1} {
		_, ok := h.Percentile(p)
		assert.False(t, ok, "p=%v", p)
	}
}

func TestHistogram_BucketIndex(t *testing.T) {
	tests := []struct {
		ms   int
		want int
	}{
		{0, 0},
		{49, 0},
		{50, 1},
		{123, 2},
		{9999, 199},
		{10000, 200},
		{10049, 200},
		{512000, 200},
	}

	for _, tt := range tests {
		if got := bucketIndex(tt.ms); got != tt.want {
			t.Errorf("bucketIndex(%d) = %d, want %d", tt.ms, got, tt.want)
		}
	}
}

func TestHistogram_IgnoresNegative(t *testing.T) {
	h := NewHistogram()
	h.Add(-1)
	assert.Equal(t, uint64(0), h.Count())
}

func TestHistogram_Stats(t *testing.T) {
	h := NewHistogram()
	for _, ms := range []int{100, 200, 300} {
		h.Add(ms)
	}

	minMs, _ := h.Min()
	maxMs, _ := h.Max()
	mean, _ := h.Mean()
	assert.Equal(t, 100, minMs)
	assert.Equal(t, 300, maxMs)
	assert.InDelta(t, 200.0, mean, 1e-9)

	p50, _ := h.Percentile(0.50)
	assert.Equal(t, 200, p50)
	p99, _ := h.Percentile(0.99)
	assert.Equal(t, 300, p99)
}

func TestHistogram_PercentileIsBucketLowerBound(t *testing.T) {
	h := NewHistogram()
	h.Add(123)

	p50, ok := h.Percentile(0.5)
	require.True(t, ok)
	assert.Equal(t, 100, p50)

	p0, _ := h.Percentile(0)
	assert.Equal(t, 123, p0, "p<=0 returns min")
	p1, _ := h.Percentile(1)
	assert.Equal(t, 123, p1, "p>=1 returns max")
}

func TestHistogram_Overflow(t *testing.T) {
	h := NewHistogram()
	h.Add(25000)
	h.Add(512000)

	p50, _ := h.Percentile(0.5)
	assert.Equal(t, HistogramRangeMs, p50)
	maxMs, _ := h.Max()
	assert.Equal(t, 512000, maxMs)

	buckets := h.BucketCounts()
	require.Len(t, buckets, bucketCount)
	assert.Equal(t, uint64(2), buckets[overflowBucket])
}

func TestHistogram_PercentilesMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := NewHistogram()
	for i := 0; i < 5000; i++ {
		h.Add(rng.Intn(12000))
	}

	minMs, _ := h.Min()
	p50, _ := h.Percentile(0.50)
	p95, _ := h.Percentile(0.95)
	p99, _ := h.Percentile(0.99)
	maxMs, _ := h.Max()

	assert.LessOrEqual(t, minMs, p50)
	assert.LessOrEqual(t, p50, p95)
	assert.LessOrEqual(t, p95, p99)
	assert.LessOrEqual(t, p99, maxMs)
}

func TestHistogram_AccuracyBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	samples := make([]int, 2000)
	h := NewHistogram()
	for i := range samples {
		samples[i] = rng.Intn(HistogramRangeMs)
		h.Add(samples[i])
	}
	sort.Ints(samples)

	for _, p := range []float64{0.50, 0.95, 0.99} {
		got, _ := h.Percentile(p)
		rank := int(math.Ceil(p*float64(len(samples)))) - 1
		exact := samples[rank]
		assert.LessOrEqual(t, got, exact, "p=%v", p)
		assert.Less(t, exact-got, BucketWidthMs, "p=%v", p)
	}
}

func TestHistogram_Merge(t *testing.T) {
	a, b, both := NewHistogram(), NewHistogram(), NewHistogram()
	for _, ms := range []int{5, 80, 400} {
		a.Add(ms)
		both.Add(ms)
	}
	for _, ms := range []int{1, 11000, 60} {
		b.Add(ms)
		both.Add(ms)
	}

	a.Merge(b)
	a.Merge(NewHistogram())
	a.Merge(nil)

	assert.Equal(t, *both, *a)
}
