package dispatch

import "github.com/loom-ml/loom/internal/tensor"

// CollapseContiguousDims merges adjacent dimensions whose combined memory
// access pattern is equivalent to a single larger dimension for every
// stride sequence simultaneously. Merging dim i into its outer neighbor p
// requires strides[p] == strides[i]*shape[i] in all sequences; dimensions
// of size 1 never contribute an offset and are dropped outright.
//
// The collapsed shape visits exactly the same per-element offsets in the
// same order for every array, with equal or lower rank. Collapsing an
// already-collapsed shape is a no-op.
func CollapseContiguousDims(shape tensor.Shape, strides ...[]int64) (tensor.Shape, [][]int64) {
	// Dimensions of size 1 are irrelevant to the visited offsets.
	var dims []int
	for i, d := range shape {
		if d != 1 {
			dims = append(dims, i)
		}
	}

	if len(dims) == 0 {
		outShape := tensor.Shape{1}
		outStrides := make([][]int64, len(strides))
		for j := range strides {
			outStrides[j] = []int64{0}
		}
		return outShape, outStrides
	}

	// Walk from the innermost meaningful dimension outward, growing the
	// current group while the contiguity condition holds for every array.
	type group struct {
		size      int
		innermost int // index into shape of the group's innermost dim
	}

	cur := group{size: shape[dims[len(dims)-1]], innermost: dims[len(dims)-1]}
	outermost := dims[len(dims)-1]
	var groups []group

	for i := len(dims) - 2; i >= 0; i-- {
		p := dims[i]
		mergeable := true
		for _, st := range strides {
			if st[p] != st[outermost]*int64(shape[outermost]) {
				mergeable = false
				break
			}
		}
		if mergeable {
			cur.size *= shape[p]
		} else {
			groups = append(groups, cur)
			cur = group{size: shape[p], innermost: p}
		}
		outermost = p
	}
	groups = append(groups, cur)

	// Groups were collected inner-to-outer; emit them outer-to-inner.
	rank := len(groups)
	outShape := make(tensor.Shape, rank)
	outStrides := make([][]int64, len(strides))
	for j := range strides {
		outStrides[j] = make([]int64, rank)
	}
	for k, g := range groups {
		outShape[rank-1-k] = g.size
		for j, st := range strides {
			outStrides[j][rank-1-k] = st[g.innermost]
		}
	}
	return outShape, outStrides
}
