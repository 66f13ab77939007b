//go:build windows

// Package webgpu binds the dispatch engine to a WebGPU device.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
	"k8s.io/klog/v2"

	"github.com/loom-ml/loom/internal/dispatch"
	"github.com/loom-ml/loom/internal/tensor"
)

// KernelSource produces the WGSL body for a kernel variant key. Kernel
// source generation lives outside this package; the backend only compiles
// and caches what the source function returns.
type KernelSource func(key string, operand, output tensor.DataType, op string, outputs int) (string, error)

// Backend owns the WebGPU device and the compiled-kernel cache.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Compiled kernel cache, keyed by variant key. Entries carry a
	// once channel so a variant compiles at most once even when several
	// dispatches miss concurrently.
	kernels  map[string]*kernelEntry
	kernelMu sync.Mutex

	source KernelSource

	// Buffer pool for storage and uniform staging buffers.
	bufferPool *BufferPool

	// Thread-group capability queried from the device.
	maxThreadsPerGroup int

	dispatcher *dispatch.Dispatcher
}

// New creates a new WebGPU backend with the given kernel source.
// Returns an error if WebGPU is not available or initialization fails.
func New(source KernelSource) (backend *Backend, err error) {
	// Recover from panic if the wgpu native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	limits, limitsErr := adapter.GetLimits()
	if limitsErr != nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get limits: %w", limitsErr)
	}
	maxThreads := int(limits.Limits.MaxComputeInvocationsPerWorkgroup)
	klog.V(1).Infof("webgpu: device ready, %d threads per group", maxThreads)

	b := &Backend{
		instance:           instance,
		adapter:            adapter,
		device:             device,
		queue:              queue,
		kernels:            make(map[string]*kernelEntry),
		source:             source,
		bufferPool:         NewBufferPool(device),
		maxThreadsPerGroup: maxThreads,
	}
	b.dispatcher = dispatch.NewDispatcher(b)
	return b, nil
}

// IsAvailable checks if WebGPU is usable on the current system.
func IsAvailable() bool {
	b, err := New(func(string, tensor.DataType, tensor.DataType, string, int) (string, error) {
		return "", fmt.Errorf("probe backend compiles nothing")
	})
	if err != nil {
		return false
	}
	b.Release()
	return true
}

// Dispatcher returns the binary-op dispatcher bound to this backend's
// kernel cache.
func (b *Backend) Dispatcher() *dispatch.Dispatcher {
	return b.dispatcher
}

// Release frees all GPU resources held by the backend.
func (b *Backend) Release() {
	b.kernelMu.Lock()
	for _, entry := range b.kernels {
		if entry.kernel != nil && entry.kernel.pipeline != nil {
			entry.kernel.pipeline.Release()
		}
	}
	b.kernels = nil
	b.kernelMu.Unlock()

	b.bufferPool.Clear()
	b.device.Release()
	b.adapter.Release()
	b.instance.Release()
}
