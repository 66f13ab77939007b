package dispatch

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/loom-ml/loom/internal/tensor"
)

// Dispatcher routes binary elementwise operations to compiled kernel
// variants. It is stateless apart from the kernel provider, so one
// Dispatcher may serve many streams concurrently.
type Dispatcher struct {
	kernels KernelProvider
}

// NewDispatcher creates a Dispatcher over the given kernel provider.
func NewDispatcher(kernels KernelProvider) *Dispatcher {
	return &Dispatcher{kernels: kernels}
}

// BinaryOp dispatches a single-output binary operation.
//
// Preconditions owned by the caller: a, b, and out all carry the broadcast
// result shape (scalar and broadcast operands as stride-0 views), and out
// is allocated to that shape. The dispatcher performs no shape
// re-validation. On return the launch is enqueued on enc's stream; nothing
// waits for device completion.
func (d *Dispatcher) BinaryOp(enc CommandEncoder, op Op, a, b, out *tensor.RawTensor) error {
	if op.Outputs() != 1 {
		return fmt.Errorf("dispatch: operator %s writes %d outputs, BinaryOp binds 1", op, op.Outputs())
	}
	return d.dispatch(enc, op, a, b, []*tensor.RawTensor{out})
}

// BinaryOpTwo dispatches a dual-output binary operation such as divmod.
// The second output buffer is bound immediately after the first; all other
// behavior matches BinaryOp.
func (d *Dispatcher) BinaryOpTwo(enc CommandEncoder, op Op, a, b, out0, out1 *tensor.RawTensor) error {
	if op.Outputs() != 2 {
		return fmt.Errorf("dispatch: operator %s writes %d outputs, BinaryOpTwo binds 2", op, op.Outputs())
	}
	return d.dispatch(enc, op, a, b, []*tensor.RawTensor{out0, out1})
}

func (d *Dispatcher) dispatch(enc CommandEncoder, op Op, a, b *tensor.RawTensor, outs []*tensor.RawTensor) error {
	out := outs[0]
	if out.NumElements() == 0 {
		return nil
	}

	bopt := Classify(a, b)

	var shape tensor.Shape
	var stridesA, stridesB []int64
	if bopt == General {
		collapsed, strides := CollapseContiguousDims(out.Shape(), a.Strides(), b.Strides(), out.Strides())
		shape, stridesA, stridesB = collapsed, strides[0], strides[1]
	}

	var width IndexWidth
	var wpt int
	if bopt == General {
		width, wpt = pickGeneralWidth(int64(a.DataSize()), int64(b.DataSize()), int64(out.NumElements()))
	} else {
		width, wpt = pickCompactWidth(a.DType(), int64(out.DataSize()))
	}

	variant := makeVariant(bopt, len(shape), width, wpt, op, a.DType())
	key := variant.Key()

	var kernel Kernel
	var err error
	if len(outs) == 2 {
		kernel, err = d.kernels.ResolveBinaryTwo(key, a.DType(), out.DType(), op.Name())
	} else {
		kernel, err = d.kernels.ResolveBinary(key, a.DType(), out.DType(), op.Name())
	}
	if err != nil {
		return fmt.Errorf("dispatch: resolving kernel %q: %w", key, err)
	}
	enc.SetKernel(kernel)

	slot := 0
	enc.BindInput(a, slot)
	slot++
	enc.BindInput(b, slot)
	slot++
	for _, o := range outs {
		enc.BindOutput(o, slot)
		slot++
	}

	maxThreads := kernel.MaxThreadsPerGroup()

	var grid, group GridDims
	if bopt == General {
		ndim := len(shape)
		if ndim > 3 {
			enc.BindInt32s(shapeToInt32(shape), slot)
			slot++
			enc.BindInt64s(stridesA, slot)
			slot++
			enc.BindInt64s(stridesB, slot)
			slot++
			enc.BindInt32(int32(ndim), slot)
		} else {
			// The shape is implicit in the grid for rank <= 3.
			enc.BindInt64s(stridesA, slot)
			slot++
			enc.BindInt64s(stridesB, slot)
		}
		grid, group, err = planGeneral(shape, out.NumElements(), wpt, maxThreads)
	} else {
		if width == Wide {
			enc.BindInt64(int64(out.DataSize()), slot)
		} else {
			enc.BindInt32(int32(out.DataSize()), slot)
		}
		grid, group, err = planCompact(out, width, wpt, maxThreads)
	}
	if err != nil {
		return err
	}

	klog.V(2).Infof("binary %s: variant=%s grid=%v group=%v", op, key, grid, group)
	enc.Dispatch(grid, group)
	return nil
}

func shapeToInt32(shape tensor.Shape) []int32 {
	out := make([]int32, len(shape))
	for i, d := range shape {
		out[i] = int32(d) //nolint:gosec // G115: collapsed dims of a narrow/wide-checked shape fit in int32
	}
	return out
}
