// Package dispatch selects and launches elementwise binary GPU kernels.
//
// Given two input views and an operator, it classifies the broadcast
// pattern, collapses contiguous dimensions, picks 32- or 64-bit indexing,
// names the kernel variant, and computes the launch geometry. Device
// specifics (kernel compilation, buffer binding, submission) live behind
// the KernelProvider and CommandEncoder interfaces so the engine itself
// stays backend-independent.
package dispatch
