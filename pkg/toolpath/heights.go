package toolpath

import (
	"math"
	"sort"
)

// heightPrecision is the number of decimals Z values are rounded to before
// the distinct-set membership test, absorbing slicer jitter.
const heightPrecision = 3

// layerSampleSize bounds how many sorted heights feed the layer-height mode.
const layerSampleSize = 20

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// heightSet collects distinct positive Z heights.
type heightSet struct {
	seen map[float64]struct{}
	list []float64
}

func newHeightSet() *heightSet {
	return &heightSet{seen: make(map[float64]struct{})}
}

func (h *heightSet) add(z float64) {
	z = roundTo(z, heightPrecision)
	if z <= 0 {
		return
	}
	if _, ok := h.seen[z]; ok {
		return
	}
	h.seen[z] = struct{}{}
	h.list = append(h.list, z)
}

// layerStats returns layer count, first layer height and the modal layer
// height. The mode is taken over consecutive deltas of the first
// layerSampleSize sorted heights; equal counts keep the delta seen first.
func (h *heightSet) layerStats() (count int, first, height float64) {
	if len(h.list) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(h.list))
	copy(sorted, h.list)
	sort.Float64s(sorted)

	count = len(sorted)
	first = sorted[0]
	if count == 1 {
		return count, first, first
	}

	sample := sorted
	if len(sample) > layerSampleSize {
		sample = sample[:layerSampleSize]
	}

	counts := make(map[float64]int)
	var order []float64
	for i := 1; i < len(sample); i++ {
		d := roundTo(sample[i]-sample[i-1], heightPrecision)
		if _, ok := counts[d]; !ok {
			order = append(order, d)
		}
		counts[d]++
	}
	best := order[0]
	for _, d := range order[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return count, first, best
}
