package dispatch

import "github.com/loom-ml/loom/internal/tensor"

// BinaryOpType classifies an operand pair by which sides are single-element
// vs. full-shape. The category determines the cheapest valid indexing
// scheme for the kernel.
type BinaryOpType int

const (
	// ScalarScalar: both operands hold a single stored element.
	ScalarScalar BinaryOpType = iota
	// ScalarVector: the first operand is scalar, the second dense.
	ScalarVector
	// VectorScalar: the second operand is scalar, the first dense.
	VectorScalar
	// VectorVector: same shape, both dense, linear indexing works.
	VectorVector
	// General: anything else; kernels walk explicit strides.
	General
)

// String returns the category tag used in kernel variant keys.
func (t BinaryOpType) String() string {
	switch t {
	case ScalarScalar:
		return "ss"
	case ScalarVector:
		return "sv"
	case VectorScalar:
		return "vs"
	case VectorVector:
		return "vv"
	case General:
		return "g"
	default:
		return "unknown"
	}
}

// Classify returns the broadcast category for an operand pair. The rules
// apply in order and exactly one matches, so classification is total.
// Scalars are detected by storage element count: a broadcast view of a
// single element stays scalar no matter how large its logical shape is.
// The dense side of a scalar/vector pair must be contiguous because those
// kernels index it linearly.
func Classify(a, b *tensor.RawTensor) BinaryOpType {
	switch {
	case a.DataSize() == 1 && b.DataSize() == 1:
		return ScalarScalar
	case a.DataSize() == 1 && b.IsContiguous():
		return ScalarVector
	case b.DataSize() == 1 && a.IsContiguous():
		return VectorScalar
	case a.IsContiguous() && b.IsContiguous() && a.Shape().Equal(b.Shape()):
		return VectorVector
	default:
		return General
	}
}
