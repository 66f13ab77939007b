package dispatch

import "github.com/loom-ml/loom/internal/tensor"

// Kernel is a compiled, device-resident kernel specialization.
type Kernel interface {
	// MaxThreadsPerGroup is the thread-group capability the device
	// reports for this kernel. Launch geometry adapts to it.
	MaxThreadsPerGroup() int
}

// KernelProvider resolves a variant key to a compiled kernel, compiling
// and caching on first use. Implementations must be safe under concurrent
// resolution of the same key and must compile each variant at most once;
// dispatch itself does not serialize cache misses.
type KernelProvider interface {
	// ResolveBinary resolves a single-output binary kernel.
	ResolveBinary(key string, operand, output tensor.DataType, op string) (Kernel, error)
	// ResolveBinaryTwo resolves a dual-output binary kernel.
	ResolveBinaryTwo(key string, operand, output tensor.DataType, op string) (Kernel, error)
}

// CommandEncoder is the per-stream command submission context. Argument
// slots are bound in the fixed order the kernel ABI expects; Dispatch
// enqueues exactly one launch onto the stream that owns the encoder.
// Streams are FIFO: launches submitted through the same encoder execute
// in submission order.
type CommandEncoder interface {
	// SetKernel selects the kernel the following bindings target.
	SetKernel(k Kernel)
	// BindInput binds an input array's device buffer to a slot.
	BindInput(t *tensor.RawTensor, slot int)
	// BindOutput binds an output array's device buffer to a slot.
	BindOutput(t *tensor.RawTensor, slot int)
	// BindInt32 binds a 32-bit scalar argument.
	BindInt32(v int32, slot int)
	// BindInt64 binds a 64-bit scalar argument.
	BindInt64(v int64, slot int)
	// BindInt32s binds a 32-bit integer sequence (shapes).
	BindInt32s(v []int32, slot int)
	// BindInt64s binds a 64-bit integer sequence (strides).
	BindInt64s(v []int64, slot int)
	// Dispatch submits grid×group threads and returns once the launch is
	// enqueued, not once it completes.
	Dispatch(grid, group GridDims)
}
