package dispatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/tensor"
)

func TestGeneralWidthBoundary(t *testing.T) {
	// The general path walks signed strides, so the boundary is the
	// signed 32-bit maximum. One element past it on any of the three
	// counts flips to wide indexing and doubles the work per thread.
	narrowMax := int64(math.MaxInt32)

	width, wpt := pickGeneralWidth(narrowMax, narrowMax, narrowMax)
	require.Equal(t, Narrow, width)
	require.Equal(t, 2, wpt)

	for _, counts := range [][3]int64{
		{narrowMax + 1, 1, 1},
		{1, narrowMax + 1, 1},
		{1, 1, narrowMax + 1},
	} {
		width, wpt = pickGeneralWidth(counts[0], counts[1], counts[2])
		require.Equal(t, Wide, width)
		require.Equal(t, 4, wpt)
	}
}

func TestCompactWidthBoundary(t *testing.T) {
	// Compact kernels compute unsigned linear offsets, so their boundary
	// is the unsigned 32-bit maximum.
	narrowMax := int64(math.MaxUint32)

	width, _ := pickCompactWidth(tensor.Float32, narrowMax)
	require.Equal(t, Narrow, width)

	width, _ = pickCompactWidth(tensor.Float32, narrowMax+1)
	require.Equal(t, Wide, width)
}

func TestWorkPerThread(t *testing.T) {
	tests := []struct {
		name  string
		dtype tensor.DataType
		size  int64
		want  int
	}{
		{"small output gets one element per thread", tensor.Float32, 1, 1},
		{"just below cutoff", tensor.Float32, workPerThreadCutoff - 1, 1},
		{"float32 at cutoff", tensor.Float32, workPerThreadCutoff, 2},
		{"float16 packs more per thread", tensor.Float16, workPerThreadCutoff, 4},
		{"uint8 packs the most", tensor.Uint8, workPerThreadCutoff, 8},
		{"int64 stays at one", tensor.Int64, workPerThreadCutoff, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, workPerThread(tc.dtype, tc.size))
		})
	}
}
