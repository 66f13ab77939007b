//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const (
	// Size class boundaries. Uniform staging buffers all land in the
	// small class; tensor storage typically lands in medium or large.
	smallClassLimit  = 4 * 1024
	mediumClassLimit = 1024 * 1024

	// Max retained buffers per class; beyond this, Release frees.
	poolClassCap = 100
)

// pooledBuffer wraps a GPU buffer with the metadata needed for reuse.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// PoolStats summarizes pool behavior since creation.
type PoolStats struct {
	Allocated uint64
	Released  uint64
	Hits      uint64
	Misses    uint64
	Pooled    int
}

// BufferPool recycles GPU buffers between dispatches. Every dispatch
// stages at least one uniform buffer for its size or stride arguments, so
// reuse here removes a per-launch allocation.
type BufferPool struct {
	device *wgpu.Device

	mu      sync.Mutex
	classes [3][]*pooledBuffer
	stats   PoolStats
}

// NewBufferPool creates a buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire returns a pooled buffer that covers size and usage, or creates
// a new one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := sizeClass(size)
	pool := p.classes[class]

	// Best fit: the smallest pooled buffer that still covers the request.
	best := -1
	for i, pb := range pool {
		if pb.size < size || pb.usage&usage != usage {
			continue
		}
		if best == -1 || pb.size < pool[best].size {
			best = i
		}
	}
	if best >= 0 {
		buffer := pool[best].buffer
		p.classes[class] = append(pool[:best], pool[best+1:]...)
		p.stats.Hits++
		return buffer
	}

	p.stats.Misses++
	p.stats.Allocated++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool, or frees it if the class is full.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++
	class := sizeClass(size)
	if len(p.classes[class]) >= poolClassCap {
		buffer.Release()
		return
	}
	p.classes[class] = append(p.classes[class], &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// Clear frees every pooled buffer. Called when the backend is released.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.classes {
		for _, pb := range p.classes[i] {
			pb.buffer.Release()
		}
		p.classes[i] = nil
	}
}

// Stats returns a snapshot of pool usage.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.Pooled = len(p.classes[0]) + len(p.classes[1]) + len(p.classes[2])
	return stats
}

func sizeClass(size uint64) int {
	switch {
	case size < smallClassLimit:
		return 0
	case size < mediumClassLimit:
		return 1
	default:
		return 2
	}
}
