//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/loom-ml/loom/internal/dispatch"
	"github.com/loom-ml/loom/internal/tensor"
)

// Stream is an ordered submission queue on the device. Launches encoded on
// the same stream execute in FIFO order; separate streams are unordered
// with respect to each other unless synchronized by the caller.
type Stream struct {
	backend *Backend

	mu      sync.Mutex
	pending []*wgpu.CommandBuffer
}

// NewStream creates a stream bound to this backend's device.
func (b *Backend) NewStream() *Stream {
	return &Stream{backend: b}
}

// Encoder begins a command encoding context on the stream. A dispatch
// binds its arguments through the encoder and submits exactly one launch;
// the encoder is single-use after that.
func (s *Stream) Encoder() *CommandEncoder {
	return &CommandEncoder{
		stream:  s,
		outputs: make(map[*tensor.RawTensor]*wgpu.Buffer),
	}
}

// Flush submits all enqueued launches to the device queue in order.
func (s *Stream) Flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, cmd := range pending {
		s.backend.queue.Submit(cmd)
	}
}

// CommandEncoder implements dispatch.CommandEncoder over WebGPU bind
// groups. Tensor arguments become storage buffers, scalar and vector
// arguments become 16-byte-aligned uniform buffers.
type CommandEncoder struct {
	stream  *Stream
	kernel  *Kernel
	entries []wgpu.BindGroupEntry

	outputs  map[*tensor.RawTensor]*wgpu.Buffer
	acquired []pooledRef
}

type pooledRef struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

var _ dispatch.CommandEncoder = (*CommandEncoder)(nil)

// SetKernel selects the compiled pipeline the following bindings target.
func (e *CommandEncoder) SetKernel(k dispatch.Kernel) {
	e.kernel = k.(*Kernel)
}

// BindInput uploads the tensor's storage and binds it read-only.
func (e *CommandEncoder) BindInput(t *tensor.RawTensor, slot int) {
	size := storageSize(t)
	buf := e.acquire(size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	e.stream.backend.queue.WriteBuffer(buf, 0, t.Data()[:t.ByteSize()])
	e.bind(buf, slot, size)
}

// BindOutput binds an uninitialized storage buffer sized for the tensor.
// The buffer stays associated with the tensor until ReadOutput.
func (e *CommandEncoder) BindOutput(t *tensor.RawTensor, slot int) {
	size := storageSize(t)
	buf := e.acquire(size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	e.outputs[t] = buf
	e.bind(buf, slot, size)
}

// BindInt32 binds a 32-bit scalar argument.
func (e *CommandEncoder) BindInt32(v int32, slot int) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(v)) //nolint:gosec // G115: bit reinterpretation
	e.bindUniform(data, slot)
}

// BindInt64 binds a 64-bit scalar argument.
func (e *CommandEncoder) BindInt64(v int64, slot int) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(v)) //nolint:gosec // G115: bit reinterpretation
	e.bindUniform(data, slot)
}

// BindInt32s binds a 32-bit integer sequence (collapsed shapes).
func (e *CommandEncoder) BindInt32s(v []int32, slot int) {
	data := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(x)) //nolint:gosec // G115: bit reinterpretation
	}
	e.bindUniform(data, slot)
}

// BindInt64s binds a 64-bit integer sequence (stride vectors).
func (e *CommandEncoder) BindInt64s(v []int64, slot int) {
	data := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(data[i*8:], uint64(x)) //nolint:gosec // G115: bit reinterpretation
	}
	e.bindUniform(data, slot)
}

// Dispatch encodes one compute pass covering grid threads in groups of
// group threads and enqueues it on the stream.
func (e *CommandEncoder) Dispatch(grid, group dispatch.GridDims) {
	b := e.stream.backend

	layout := e.kernel.pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(layout, e.entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(e.kernel.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)

	// The grid is in threads; WebGPU dispatches workgroup counts.
	//nolint:gosec // G115: workgroup counts are non-negative
	pass.DispatchWorkgroups(
		uint32(ceilDiv(grid.X, group.X)),
		uint32(ceilDiv(grid.Y, group.Y)),
		uint32(ceilDiv(grid.Z, group.Z)),
	)
	pass.End()

	cmd := encoder.Finish(nil)
	e.stream.mu.Lock()
	e.stream.pending = append(e.stream.pending, cmd)
	e.stream.mu.Unlock()
}

// ReadOutput flushes the stream and copies a bound output buffer back into
// the tensor's CPU storage.
func (e *CommandEncoder) ReadOutput(t *tensor.RawTensor) error {
	buf, ok := e.outputs[t]
	if !ok {
		return fmt.Errorf("webgpu: tensor was not bound as an output")
	}
	e.stream.Flush()

	data, err := e.stream.backend.readBuffer(buf, storageSize(t))
	if err != nil {
		return err
	}
	copy(t.Data()[:t.ByteSize()], data)
	return nil
}

// Close returns every acquired buffer to the pool. The encoder must not be
// used afterwards.
func (e *CommandEncoder) Close() {
	pool := e.stream.backend.bufferPool
	for _, ref := range e.acquired {
		pool.Release(ref.buffer, ref.size, ref.usage)
	}
	e.acquired = nil
	e.entries = nil
	e.outputs = nil
}

func (e *CommandEncoder) acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	buf := e.stream.backend.bufferPool.Acquire(size, usage)
	e.acquired = append(e.acquired, pooledRef{buffer: buf, size: size, usage: usage})
	return buf
}

func (e *CommandEncoder) bind(buf *wgpu.Buffer, slot int, size uint64) {
	//nolint:gosec // G115: binding slots are small non-negative indices
	e.entries = append(e.entries, wgpu.BufferBindingEntry(uint32(slot), buf, 0, size))
}

// bindUniform stages scalar or vector bytes in a uniform buffer with the
// 16-byte alignment uniform blocks require.
func (e *CommandEncoder) bindUniform(data []byte, slot int) {
	size := (uint64(len(data)) + 15) &^ 15
	buf := e.acquire(size, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

	padded := make([]byte, size)
	copy(padded, data)
	e.stream.backend.queue.WriteBuffer(buf, 0, padded)
	e.bind(buf, slot, size)
}

// storageSize returns the tensor's byte size rounded up to WebGPU's 4-byte
// buffer granularity, with a 4-byte floor for empty and sub-word tensors.
func storageSize(t *tensor.RawTensor) uint64 {
	size := uint64(t.ByteSize()) //nolint:gosec // G115: byte sizes are non-negative
	if size < 4 {
		size = 4
	}
	return (size + 3) &^ 3
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()
	return result, nil
}

func ceilDiv(n, d int) int {
	if d == 0 {
		return 0
	}
	return (n + d - 1) / d
}
