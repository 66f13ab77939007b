//go:build windows

package webgpu

import (
	"fmt"

	"github.com/loom-ml/loom/internal/dispatch"
	"github.com/loom-ml/loom/internal/tensor"
)

// resultDType returns the element type an operator produces.
// Comparisons and logical operators produce booleans; everything else
// keeps the operand type.
func resultDType(op dispatch.Op, operand tensor.DataType) tensor.DataType {
	switch op {
	case dispatch.OpEqual, dispatch.OpNotEqual, dispatch.OpGreater, dispatch.OpGreaterEqual,
		dispatch.OpLess, dispatch.OpLessEqual, dispatch.OpLogicalAnd, dispatch.OpLogicalOr:
		return tensor.Bool
	default:
		return operand
	}
}

// runBinary broadcasts the operands, allocates the output, and dispatches
// one kernel launch on a fresh stream. Broadcasting happens here, before
// the dispatch core runs: the core assumes pre-validated same-shape views.
func (b *Backend) runBinary(op dispatch.Op, a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != other.DType() {
		return nil, fmt.Errorf("webgpu: dtype mismatch: %s vs %s", a.DType(), other.DType())
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), other.Shape())
	if err != nil {
		return nil, fmt.Errorf("webgpu: %w", err)
	}

	av, err := a.Expand(outShape)
	if err != nil {
		return nil, fmt.Errorf("webgpu: %w", err)
	}
	defer av.Release()
	bv, err := other.Expand(outShape)
	if err != nil {
		return nil, fmt.Errorf("webgpu: %w", err)
	}
	defer bv.Release()

	out, err := tensor.NewRaw(outShape, resultDType(op, a.DType()), tensor.WebGPU)
	if err != nil {
		return nil, fmt.Errorf("webgpu: %w", err)
	}

	enc := b.NewStream().Encoder()
	defer enc.Close()

	if err := b.dispatcher.BinaryOp(enc, op, av, bv, out); err != nil {
		return nil, err
	}
	if out.NumElements() == 0 {
		return out, nil
	}
	if err := enc.ReadOutput(out); err != nil {
		return nil, err
	}
	return out, nil
}

// runBinaryTwo is runBinary for operators that write two outputs.
func (b *Backend) runBinaryTwo(op dispatch.Op, a, other *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor, error) {
	if a.DType() != other.DType() {
		return nil, nil, fmt.Errorf("webgpu: dtype mismatch: %s vs %s", a.DType(), other.DType())
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), other.Shape())
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: %w", err)
	}

	av, err := a.Expand(outShape)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: %w", err)
	}
	defer av.Release()
	bv, err := other.Expand(outShape)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: %w", err)
	}
	defer bv.Release()

	out0, err := tensor.NewRaw(outShape, a.DType(), tensor.WebGPU)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: %w", err)
	}
	out1, err := tensor.NewRaw(outShape, a.DType(), tensor.WebGPU)
	if err != nil {
		return nil, nil, fmt.Errorf("webgpu: %w", err)
	}

	enc := b.NewStream().Encoder()
	defer enc.Close()

	if err := b.dispatcher.BinaryOpTwo(enc, op, av, bv, out0, out1); err != nil {
		return nil, nil, err
	}
	if out0.NumElements() == 0 {
		return out0, out1, nil
	}
	if err := enc.ReadOutput(out0); err != nil {
		return nil, nil, err
	}
	if err := enc.ReadOutput(out1); err != nil {
		return nil, nil, err
	}
	return out0, out1, nil
}

// Add performs element-wise addition with broadcasting.
func (b *Backend) Add(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpAdd, a, other)
}

// Sub performs element-wise subtraction with broadcasting.
func (b *Backend) Sub(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpSubtract, a, other)
}

// Mul performs element-wise multiplication with broadcasting.
func (b *Backend) Mul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpMultiply, a, other)
}

// Div performs element-wise division with broadcasting.
func (b *Backend) Div(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpDivide, a, other)
}

// DivMod computes the quotient and remainder in a single kernel launch.
func (b *Backend) DivMod(a, other *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor, error) {
	return b.runBinaryTwo(dispatch.OpDivMod, a, other)
}

// Rem performs element-wise remainder with broadcasting.
func (b *Backend) Rem(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpRemainder, a, other)
}

// Pow raises a to the power of other, element-wise.
func (b *Backend) Pow(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpPower, a, other)
}

// Maximum takes the element-wise maximum.
func (b *Backend) Maximum(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpMaximum, a, other)
}

// Minimum takes the element-wise minimum.
func (b *Backend) Minimum(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpMinimum, a, other)
}

// ArcTan2 computes the two-argument arctangent, element-wise.
func (b *Backend) ArcTan2(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpArcTan2, a, other)
}

// LogAddExp computes log(exp(a) + exp(other)) stably, element-wise.
func (b *Backend) LogAddExp(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpLogAddExp, a, other)
}

// Equal compares element-wise, producing booleans.
func (b *Backend) Equal(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpEqual, a, other)
}

// NotEqual compares element-wise, producing booleans.
func (b *Backend) NotEqual(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpNotEqual, a, other)
}

// Greater compares element-wise, producing booleans.
func (b *Backend) Greater(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpGreater, a, other)
}

// GreaterEqual compares element-wise, producing booleans.
func (b *Backend) GreaterEqual(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpGreaterEqual, a, other)
}

// Less compares element-wise, producing booleans.
func (b *Backend) Less(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpLess, a, other)
}

// LessEqual compares element-wise, producing booleans.
func (b *Backend) LessEqual(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpLessEqual, a, other)
}

// LogicalAnd combines element-wise, producing booleans.
func (b *Backend) LogicalAnd(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpLogicalAnd, a, other)
}

// LogicalOr combines element-wise, producing booleans.
func (b *Backend) LogicalOr(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpLogicalOr, a, other)
}

// BitwiseAnd performs element-wise bitwise AND on integer tensors.
func (b *Backend) BitwiseAnd(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpBitwiseAnd, a, other)
}

// BitwiseOr performs element-wise bitwise OR on integer tensors.
func (b *Backend) BitwiseOr(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpBitwiseOr, a, other)
}

// BitwiseXor performs element-wise bitwise XOR on integer tensors.
func (b *Backend) BitwiseXor(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpBitwiseXor, a, other)
}

// LeftShift shifts a left by other, element-wise.
func (b *Backend) LeftShift(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpLeftShift, a, other)
}

// RightShift shifts a right by other, element-wise.
func (b *Backend) RightShift(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.runBinary(dispatch.OpRightShift, a, other)
}
