// Copyright 2025 Loom Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

//go:build windows

// Package webgpu provides the WebGPU execution backend for Loom's binary
// kernel dispatch.
//
// WebGPU is a cross-platform graphics and compute API that works on:
//   - Windows (via Dawn/D3D12)
//   - macOS (via Dawn/Metal)
//   - Linux (via Dawn/Vulkan)
//
// Example:
//
//	gpu, err := webgpu.New(kernels.Source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	sum, err := gpu.Add(a, b)
package webgpu

import (
	internalwebgpu "github.com/loom-ml/loom/internal/backend/webgpu"
)

// Backend owns the WebGPU device, the compiled-kernel cache, and the
// dispatcher bound to them.
type Backend = internalwebgpu.Backend

// KernelSource produces WGSL kernel bodies for variant keys.
type KernelSource = internalwebgpu.KernelSource

// Stream is an ordered, FIFO submission queue on the device.
type Stream = internalwebgpu.Stream

// New creates a new WebGPU backend over the given kernel source.
//
// Returns an error if WebGPU initialization fails (e.g. no compatible
// GPU). Call Release() when done to free GPU resources.
func New(source KernelSource) (*Backend, error) {
	return internalwebgpu.New(source)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// It attempts to initialize a WebGPU adapter to verify that a compatible
// GPU and drivers are present.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
