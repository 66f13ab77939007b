// Package tensor provides the array views consumed by the Loom dispatch engine.
package tensor

import "github.com/x448/float16"

// DType is a constraint for supported element types.
type DType interface {
	~float32 | ~uint16 | ~int32 | ~int64 | ~uint8 | ~bool
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Float16
	Int32
	Int64
	Uint8
	Bool
)

// Size returns the byte width of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Int64:
		return 8
	case Float16:
		return 2
	case Uint8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// TypeName returns the short tag appended to kernel variant keys.
func (dt DataType) TypeName() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool_"
	default:
		return "unknown"
	}
}

// Float16Bits converts a float32 to the IEEE 754 half-precision bit pattern
// stored for Float16 tensors.
func Float16Bits(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}

// Float16Value converts a stored half-precision bit pattern back to float32.
func Float16Value(bits uint16) float32 {
	return float16.Frombits(bits).Float32()
}
