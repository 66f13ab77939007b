package dispatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/tensor"
)

func TestBlockDims(t *testing.T) {
	tests := []struct {
		name             string
		dim0, dim1, dim2 int
		maxThreads       int
		want             GridDims
	}{
		{"single element", 1, 1, 1, 1024, GridDims{1, 1, 1}},
		{"inner dim dominates", 4096, 1, 1, 1024, GridDims{1024, 1, 1}},
		{"two dims split the budget", 64, 64, 1, 1024, GridDims{32, 32, 1}},
		{"small dims leave budget unused", 4, 4, 4, 1024, GridDims{4, 4, 4}},
		{"smaller capability", 4096, 1, 1, 256, GridDims{256, 1, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BlockDims(tc.dim0, tc.dim1, tc.dim2, tc.maxThreads)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.LessOrEqual(t, got.Total(), tc.maxThreads)
		})
	}
}

func TestBlockDimsBadCapability(t *testing.T) {
	for _, maxThreads := range []int{0, -1, 768, 1000} {
		_, err := BlockDims(8, 8, 8, maxThreads)
		require.Error(t, err, "capability %d", maxThreads)
	}
}

func TestGrid2D(t *testing.T) {
	// Broadcast (stride 0) dimensions are repeats of the same storage and
	// must not inflate the grid.
	grid, err := Grid2D(tensor.Shape{16, 32}, []int64{0, 1}, 1)
	require.NoError(t, err)
	require.Equal(t, GridDims{32, 1, 1}, grid)

	// The divisor comes out of a dimension it divides evenly.
	grid, err = Grid2D(tensor.Shape{16, 32}, []int64{32, 1}, 4)
	require.NoError(t, err)
	require.Equal(t, GridDims{16 * 8, 1, 1}, grid)

	// A dimension past the 32-bit limit spills into the second grid axis.
	big := math.MaxUint32/2 + 1
	grid, err = Grid2D(tensor.Shape{4, big}, []int64{int64(big), 1}, 1)
	require.NoError(t, err)
	require.Equal(t, GridDims{big, 4, 1}, grid)
}

func TestPlanGeneral(t *testing.T) {
	// Rank 2: grid is exactly (dim0, dim1, 1).
	grid, group, err := planGeneral(tensor.Shape{8, 25}, 200, 2, 1024)
	require.NoError(t, err)
	require.Equal(t, GridDims{25, 8, 1}, grid)
	require.LessOrEqual(t, group.Total(), 1024)

	// Rank 4: the innermost dimension shrinks by the work-per-thread
	// multiplier, rounding up.
	grid, _, err = planGeneral(tensor.Shape{2, 3, 4, 7}, 168, 2, 1024)
	require.NoError(t, err)
	require.Equal(t, GridDims{4, 4, 6}, grid)
}

func TestPlanCompactCoversOutput(t *testing.T) {
	sizes := []int{1, 7, 1024, 1_000_000}
	for _, n := range sizes {
		out, err := tensor.NewRaw(tensor.Shape{n}, tensor.Float32, tensor.CPU)
		require.NoError(t, err)

		width, wpt := pickCompactWidth(out.DType(), int64(out.DataSize()))
		grid, group, err := planCompact(out, width, wpt, 1024)
		require.NoError(t, err)
		require.Equal(t, Narrow, width)
		require.Equal(t, 1, grid.Y)
		require.Equal(t, 1, grid.Z)

		// Exactly-once coverage modulo ceiling rounding.
		threads := grid.Total()
		require.GreaterOrEqual(t, threads*wpt, n)
		require.Less(t, threads*wpt, n+wpt)
		require.LessOrEqual(t, group.X, 1024)
	}
}
