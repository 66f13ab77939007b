package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// tensorBuffer is a reference-counted shared buffer.
// Strided and broadcast views alias the same storage, so the buffer lives
// until the last view is released.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for Clone and view operations).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

// RawTensor is the low-level array view the dispatch engine reads.
// It carries shape, signed element strides, element type, and the size of
// the contiguous storage region backing the view. The dispatch engine never
// writes to any of these fields.
type RawTensor struct {
	buffer        *tensorBuffer // Shared reference-counted buffer
	shape         Shape         // Tensor dimensions
	strides       []int64       // Signed element strides
	dtype         DataType      // Runtime type information
	device        Device        // Compute device
	offset        int           // Element offset for slicing/views
	dataSize      int           // Contiguous-storage element count backing this view
	rowContiguous bool          // Strides match the row-major layout of shape
}

// NewRaw creates a new contiguous RawTensor with the given shape and type.
// Memory is allocated but not initialized (contains zeros).
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	numElements := shape.NumElements()
	byteSize := numElements * dtype.Size()

	return &RawTensor{
		buffer:        newTensorBuffer(byteSize),
		shape:         shape.Clone(),
		strides:       shape.ComputeStrides(),
		dtype:         dtype,
		device:        device,
		offset:        0,
		dataSize:      numElements,
		rowContiguous: true,
	}, nil
}

// AsStrided returns a view of r with the given shape and element strides.
// The view shares r's buffer; its storage element count is inherited from r.
func (r *RawTensor) AsStrided(shape Shape, strides []int64) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(strides) != len(shape) {
		return nil, fmt.Errorf("strides rank %d does not match shape rank %d", len(strides), len(shape))
	}

	r.buffer.addRef()
	return &RawTensor{
		buffer:        r.buffer,
		shape:         shape.Clone(),
		strides:       append([]int64(nil), strides...),
		dtype:         r.dtype,
		device:        r.device,
		offset:        r.offset,
		dataSize:      r.dataSize,
		rowContiguous: isRowContiguous(shape, strides),
	}, nil
}

// Expand returns a broadcast view of r with the given shape.
// Dimensions of size 1 (or missing leading dimensions) get stride 0, so the
// view repeats r's data without copying it.
func (r *RawTensor) Expand(shape Shape) (*RawTensor, error) {
	if len(shape) < len(r.shape) {
		return nil, fmt.Errorf("cannot expand %v to lower-rank shape %v", r.shape, shape)
	}
	strides := make([]int64, len(shape))
	pad := len(shape) - len(r.shape)
	for i := range shape {
		src := i - pad
		switch {
		case src < 0 || r.shape[src] == 1:
			strides[i] = 0
		case r.shape[src] == shape[i]:
			strides[i] = r.strides[src]
		default:
			return nil, fmt.Errorf("cannot expand dimension %d from %d to %d", src, r.shape[src], shape[i])
		}
	}
	return r.AsStrided(shape, strides)
}

// isRowContiguous reports whether strides describe a dense row-major layout
// of shape. Strides of size-1 dimensions never affect the visited offsets,
// so they are ignored.
func isRowContiguous(shape Shape, strides []int64) bool {
	expected := int64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		if shape[i] == 1 {
			continue
		}
		if strides[i] != expected {
			return false
		}
		expected *= int64(shape[i])
	}
	return true
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's element strides.
func (r *RawTensor) Strides() []int64 {
	return r.strides
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements in the view.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// DataSize returns the number of elements in the contiguous storage region
// backing this view. For a broadcast view this is smaller than NumElements;
// it bounds the largest linear offset a kernel may compute into the buffer.
func (r *RawTensor) DataSize() int {
	return r.dataSize
}

// IsContiguous reports whether the view's strides are dense row-major.
func (r *RawTensor) IsContiguous() bool {
	return r.rowContiguous
}

// ByteSize returns the storage size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.dataSize * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data[r.offset*r.dtype.Size():]
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by DataSize()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.dataSize)
}

// AsFloat16 interprets the data as half-precision bit patterns.
// Panics if the tensor's dtype is not Float16.
func (r *RawTensor) AsFloat16() []uint16 {
	if r.dtype != Float16 {
		panic(fmt.Sprintf("tensor dtype is %s, not float16", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by DataSize()
	return unsafe.Slice((*uint16)(unsafe.Pointer(&data[0])), r.dataSize)
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by DataSize()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.dataSize)
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by DataSize()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.dataSize)
}

// AsUint8 interprets the data as []uint8.
// Panics if the tensor's dtype is not Uint8.
func (r *RawTensor) AsUint8() []uint8 {
	if r.dtype != Uint8 {
		panic(fmt.Sprintf("tensor dtype is %s, not uint8", r.dtype))
	}
	return r.Data()[:r.dataSize]
}

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (r *RawTensor) AsBool() []bool {
	if r.dtype != Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not bool", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by DataSize()
	return unsafe.Slice((*bool)(unsafe.Pointer(&data[0])), r.dataSize)
}

// Clone creates a shallow copy of the RawTensor (shares buffer with
// reference counting).
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer:        r.buffer,
		shape:         r.shape.Clone(),
		strides:       append([]int64(nil), r.strides...),
		dtype:         r.dtype,
		device:        r.device,
		offset:        r.offset,
		dataSize:      r.dataSize,
		rowContiguous: r.rowContiguous,
	}
}

// Release decrements the reference count and deallocates if it reaches 0.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.refCount.Load() == 1
}
