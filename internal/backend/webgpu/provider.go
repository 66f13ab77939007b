//go:build windows

package webgpu

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"
	"k8s.io/klog/v2"

	"github.com/loom-ml/loom/internal/dispatch"
	"github.com/loom-ml/loom/internal/tensor"
)

// Verify the backend satisfies the dispatcher's provider contract.
var _ dispatch.KernelProvider = (*Backend)(nil)

// Kernel wraps a compiled compute pipeline. It satisfies dispatch.Kernel
// by reporting the device's thread-group capability.
type Kernel struct {
	pipeline   *wgpu.ComputePipeline
	maxThreads int
}

// MaxThreadsPerGroup returns the queried thread-group capability.
func (k *Kernel) MaxThreadsPerGroup() int {
	return k.maxThreads
}

// kernelEntry is one cache slot. The once field guarantees at most one
// compile per variant key no matter how many dispatches miss concurrently;
// the dispatcher itself never serializes cache misses.
type kernelEntry struct {
	once   chan struct{}
	kernel *Kernel
	err    error
}

// ResolveBinary resolves a single-output binary kernel, compiling and
// caching on first use.
func (b *Backend) ResolveBinary(key string, operand, output tensor.DataType, op string) (dispatch.Kernel, error) {
	return b.resolve(key, operand, output, op, 1)
}

// ResolveBinaryTwo resolves a dual-output binary kernel.
func (b *Backend) ResolveBinaryTwo(key string, operand, output tensor.DataType, op string) (dispatch.Kernel, error) {
	return b.resolve(key, operand, output, op, 2)
}

func (b *Backend) resolve(key string, operand, output tensor.DataType, op string, outputs int) (dispatch.Kernel, error) {
	b.kernelMu.Lock()
	entry, ok := b.kernels[key]
	if !ok {
		entry = &kernelEntry{once: make(chan struct{})}
		b.kernels[key] = entry
		b.kernelMu.Unlock()

		entry.kernel, entry.err = b.compile(key, operand, output, op, outputs)
		close(entry.once)
	} else {
		b.kernelMu.Unlock()
		<-entry.once
	}

	if entry.err != nil {
		// Compile errors are fatal for this variant; there is no
		// fallback kernel.
		return nil, entry.err
	}
	return entry.kernel, nil
}

// compile generates, compiles, and wraps one kernel variant.
func (b *Backend) compile(key string, operand, output tensor.DataType, op string, outputs int) (*Kernel, error) {
	code, err := b.source(key, operand, output, op, outputs)
	if err != nil {
		return nil, fmt.Errorf("webgpu: generating kernel %q: %w", key, err)
	}

	shader := b.device.CreateShaderModuleWGSL(code)
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")
	if pipeline == nil {
		return nil, fmt.Errorf("webgpu: compiling kernel %q failed", key)
	}
	klog.V(2).Infof("webgpu: compiled kernel %s", key)

	return &Kernel{pipeline: pipeline, maxThreads: b.maxThreadsPerGroup}, nil
}
