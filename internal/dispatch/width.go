package dispatch

import (
	"math"

	"github.com/loom-ml/loom/internal/tensor"
)

// IndexWidth selects 32-bit or 64-bit element offsets for a dispatch.
// It is chosen once per dispatch and fixed for its lifetime.
type IndexWidth int

const (
	// Narrow uses 32-bit counters inside the kernel.
	Narrow IndexWidth = iota
	// Wide uses 64-bit counters.
	Wide
)

// String returns "narrow" or "wide".
func (w IndexWidth) String() string {
	if w == Wide {
		return "wide"
	}
	return "narrow"
}

// Below this output size a single element per thread is cheapest; the
// multiplier's amortization does not pay for its extra indexing.
const workPerThreadCutoff = 1 << 16

// pickGeneralWidth selects the index width for the general category.
// General kernels walk signed strides (offsets can be negative), so the
// boundary is the signed 32-bit maximum. The inputs' storage extents and
// the output's logical size must all stay addressable.
func pickGeneralWidth(aDataSize, bDataSize, outSize int64) (IndexWidth, int) {
	if aDataSize > math.MaxInt32 || bDataSize > math.MaxInt32 || outSize > math.MaxInt32 {
		return Wide, 4
	}
	return Narrow, 2
}

// pickCompactWidth selects the index width and work-per-thread multiplier
// for the three compact categories, which only compute unsigned linear
// offsets into the output storage.
func pickCompactWidth(dtype tensor.DataType, outDataSize int64) (IndexWidth, int) {
	width := Narrow
	if outDataSize > math.MaxUint32 {
		width = Wide
	}
	return width, workPerThread(dtype, outDataSize)
}

// workPerThread returns how many output elements one thread computes on
// the compact paths. Wider element types get smaller multipliers to bound
// per-thread register and memory pressure; tiny outputs get 1.
func workPerThread(dtype tensor.DataType, size int64) int {
	if size < workPerThreadCutoff {
		return 1
	}
	return max(1, 8/dtype.Size())
}
