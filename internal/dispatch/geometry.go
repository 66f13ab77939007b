package dispatch

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/loom-ml/loom/internal/tensor"
)

// GridDims is one level of a launch geometry: either the grid of thread
// groups or the threads within a group.
type GridDims struct {
	X, Y, Z int
}

// Total returns X*Y*Z.
func (g GridDims) Total() int {
	return g.X * g.Y * g.Z
}

// BlockDims distributes at most maxThreads threads over three dimensions,
// assigning power-of-two extents round-robin until each dimension is
// covered or the budget is spent. maxThreads comes from the kernel's
// queried thread-group capability; a capability that is not a power of two
// cannot be honored by this layout and is a configuration error.
func BlockDims(dim0, dim1, dim2, maxThreads int) (GridDims, error) {
	if maxThreads <= 0 || maxThreads&(maxThreads-1) != 0 {
		return GridDims{}, fmt.Errorf("dispatch: thread-group capability %d is not a power of two", maxThreads)
	}
	budget := bits.TrailingZeros(uint(maxThreads))

	var pows [3]int
	sum := 0
	for {
		presum := sum
		if dim0 > 1<<pows[0] {
			pows[0]++
			sum++
		}
		if sum == budget {
			break
		}
		if dim1 > 1<<pows[1] {
			pows[1]++
			sum++
		}
		if sum == budget {
			break
		}
		if dim2 > 1<<pows[2] {
			pows[2]++
			sum++
		}
		if sum == presum || sum == budget {
			break
		}
	}
	return GridDims{X: 1 << pows[0], Y: 1 << pows[1], Z: 1 << pows[2]}, nil
}

// Grid2D factors a flat launch over the output's dimensions into a 2D grid
// so that no single grid axis exceeds the 32-bit launch limit. Dimensions
// with stride 0 are skipped: they are broadcast repeats of the same
// storage. divisor is the work-per-thread multiplier; it is divided out of
// the first dimension it divides evenly, or applied as a ceiling division
// at the end.
func Grid2D(shape tensor.Shape, strides []int64, divisor int) (GridDims, error) {
	gridX, gridY := int64(1), int64(1)
	div := int64(divisor)
	for i := len(shape) - 1; i >= 0; i-- {
		if strides[i] == 0 {
			continue
		}
		d := int64(shape[i])
		if div > 1 && d%div == 0 {
			d /= div
			div = 1
		}
		if gridX*d <= math.MaxUint32 {
			gridX *= d
		} else {
			gridY *= d
		}
	}
	if div > 1 {
		gridX = ceilDiv64(gridX, div)
	}
	if gridY > math.MaxUint32 {
		return GridDims{}, fmt.Errorf("dispatch: output of %v elements cannot be factored into a 2D grid", shape)
	}
	return GridDims{X: int(gridX), Y: int(gridY), Z: 1}, nil
}

// planGeneral computes the launch geometry for the general path: a grid of
// (dim0, dim1, rest) threads where dim0/dim1 come from the collapsed
// shape's two innermost dimensions. Above rank 3 each thread covers
// workPerThread innermost elements, so dim0 shrinks accordingly.
func planGeneral(shape tensor.Shape, outSize, workPerThread, maxThreads int) (grid, group GridDims, err error) {
	ndim := len(shape)
	dim0, dim1 := 1, 1
	if ndim > 0 {
		dim0 = shape[ndim-1]
	}
	if ndim > 1 {
		dim1 = shape[ndim-2]
	}
	rest := outSize / (dim0 * dim1)
	if ndim > 3 {
		dim0 = ceilDiv(dim0, workPerThread)
	}

	group, err = BlockDims(dim0, dim1, rest, maxThreads)
	if err != nil {
		return GridDims{}, GridDims{}, err
	}
	return GridDims{X: dim0, Y: dim1, Z: rest}, group, nil
}

// planCompact computes the launch geometry for the scalar/vector paths:
// one flat run of ceil(outDataSize/workPerThread) threads, folded into a
// 2D grid when wide indexing pushes the flat count past the launch limit.
func planCompact(out *tensor.RawTensor, width IndexWidth, workPerThread, maxThreads int) (grid, group GridDims, err error) {
	nthreads := ceilDiv(out.DataSize(), workPerThread)
	groupSize := min(maxThreads, nthreads)
	group = GridDims{X: groupSize, Y: 1, Z: 1}

	if width == Wide {
		grid, err = Grid2D(out.Shape(), out.Strides(), workPerThread)
		if err != nil {
			return GridDims{}, GridDims{}, err
		}
		return grid, group, nil
	}
	return GridDims{X: nthreads, Y: 1, Z: 1}, group, nil
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func ceilDiv64(n, d int64) int64 {
	return (n + d - 1) / d
}
