package analyzer

import "math"

// Histogram layout. Latencies in [0, HistogramRangeMs) fall into fixed
// BucketWidthMs-wide buckets; everything at or above the range lands in a
// single overflow bucket with no resolution inside it.
const (
	BucketWidthMs    = 50
	HistogramRangeMs = 10000

	overflowBucket = HistogramRangeMs / BucketWidthMs
	bucketCount    = overflowBucket + 1
)

// Histogram accumulates latency samples in constant memory and answers
// approximate percentile queries. It never retains individual samples.
//
// Percentiles report the lower bound of the bucket that contains the target
// rank, so interior percentiles read up to BucketWidthMs low. Consumers of the
// report rely on that exact bias; do not switch to bucket midpoints.
type Histogram struct {
	buckets [bucketCount]uint64
	count   uint64
	sum     uint64
	min     int
	max     int
}

// NewHistogram creates an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{}
}

// Add records one latency sample. Negative values are ignored.
func (h *Histogram) Add(ms int) {
	if ms < 0 {
		return
	}

	if h.count == 0 || ms < h.min {
		h.min = ms
	}
	if h.count == 0 || ms > h.max {
		h.max = ms
	}
	h.count++
	h.sum += uint64(ms)

	h.buckets[bucketIndex(ms)]++
}

func bucketIndex(ms int) int {
	idx := ms / BucketWidthMs
	if idx > overflowBucket {
		idx = overflowBucket
	}
	return idx
}

// Count returns the number of samples recorded.
func (h *Histogram) Count() uint64 {
	return h.count
}

// Min returns the smallest sample, if any.
func (h *Histogram) Min() (int, bool) {
	return h.min, h.count > 0
}

// Max returns the largest sample, if any.
func (h *Histogram) Max() (int, bool) {
	return h.max, h.count > 0
}

// Mean returns the exact arithmetic mean of all samples, if any.
func (h *Histogram) Mean() (float64, bool) {
	if h.count == 0 {
		return 0, false
	}
	return float64(h.sum) / float64(h.count), true
}

// Percentile returns the approximate p-quantile for p in (0, 1): the lower
// bound of the first bucket whose cumulative count reaches ceil(p*count).
// p <= 0 returns the minimum and p >= 1 the maximum.
func (h *Histogram) Percentile(p float64) (int, bool) {
	if h.count == 0 {
		return 0, false
	}
	if p <= 0 {
		return h.min, true
	}
	if p >= 1 {
		return h.max, true
	}

	target := uint64(math.Ceil(p * float64(h.count)))
	var cumulative uint64
	for i, n := range h.buckets {
		cumulative += n
		if cumulative >= target {
			return i * BucketWidthMs, true
		}
	}
	return h.max, true
}

// Merge adds every sample recorded in other to h.
func (h *Histogram) Merge(other *Histogram) {
	if other == nil || other.count == 0 {
		return
	}
	if h.count == 0 || other.min < h.min {
		h.min = other.min
	}
	if h.count == 0 || other.max > h.max {
		h.max = other.max
	}
	h.count += other.count
	h.sum += other.sum
	for i, n := range other.buckets {
		h.buckets[i] += n
	}
}

// BucketCounts returns a copy of the per-bucket counts. The last entry is the
// overflow bucket.
func (h *Histogram) BucketCounts() []uint64 {
	out := make([]uint64, bucketCount)
	copy(out, h.buckets[:])
	return out
}
