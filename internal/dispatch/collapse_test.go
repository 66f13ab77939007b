package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/tensor"
)

// visitOffsets enumerates the element offsets a kernel would visit walking
// shape in row-major order with the given strides.
func visitOffsets(shape tensor.Shape, strides []int64) []int64 {
	n := shape.NumElements()
	out := make([]int64, 0, n)
	idx := make([]int, len(shape))
	for i := 0; i < n; i++ {
		var off int64
		for d := range idx {
			off += int64(idx[d]) * strides[d]
		}
		out = append(out, off)
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

func TestCollapsePreservesOffsets(t *testing.T) {
	tests := []struct {
		name    string
		shape   tensor.Shape
		strides [][]int64
		want    tensor.Shape
	}{
		{
			name:  "fully contiguous collapses to rank 1",
			shape: tensor.Shape{2, 3, 4},
			strides: [][]int64{
				{12, 4, 1},
				{12, 4, 1},
				{12, 4, 1},
			},
			want: tensor.Shape{24},
		},
		{
			name:  "broadcast input blocks the merge",
			shape: tensor.Shape{2, 3, 4},
			strides: [][]int64{
				{12, 4, 1},
				{0, 4, 1}, // first dim broadcast in b
				{12, 4, 1},
			},
			want: tensor.Shape{2, 12},
		},
		{
			name:  "size-1 dims are dropped",
			shape: tensor.Shape{2, 1, 4},
			strides: [][]int64{
				{4, 4, 1},
				{4, 4, 1},
				{4, 4, 1},
			},
			want: tensor.Shape{8},
		},
		{
			name:  "5d collapsing to 2 effective dims",
			shape: tensor.Shape{2, 2, 2, 5, 5},
			strides: [][]int64{
				{100, 50, 25, 5, 1},
				{200, 100, 50, 5, 1}, // outer block strided, inner block dense
				{100, 50, 25, 5, 1},
			},
			want: tensor.Shape{8, 25},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shape, strides := CollapseContiguousDims(tc.shape, tc.strides[0], tc.strides[1], tc.strides[2])
			require.Equal(t, tc.want, shape)
			require.Equal(t, tc.shape.NumElements(), shape.NumElements(), "element count must be preserved")

			for i := range tc.strides {
				require.Equal(t, visitOffsets(tc.shape, tc.strides[i]), visitOffsets(shape, strides[i]),
					"visited offsets changed for array %d", i)
			}
		})
	}
}

func TestCollapseIdempotent(t *testing.T) {
	shape := tensor.Shape{2, 2, 2, 5, 5}
	strides := [][]int64{
		{100, 50, 25, 5, 1},
		{200, 100, 50, 5, 1},
		{100, 50, 25, 5, 1},
	}

	s1, st1 := CollapseContiguousDims(shape, strides[0], strides[1], strides[2])
	s2, st2 := CollapseContiguousDims(s1, st1[0], st1[1], st1[2])

	require.Equal(t, s1, s2)
	require.Equal(t, st1, st2)
}

func TestCollapseAllOnes(t *testing.T) {
	shape, strides := CollapseContiguousDims(tensor.Shape{1, 1, 1}, []int64{1, 1, 1}, []int64{0, 0, 0}, []int64{1, 1, 1})
	require.Equal(t, tensor.Shape{1}, shape)
	for _, st := range strides {
		require.Equal(t, []int64{0}, st)
	}
}
