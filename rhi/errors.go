// Package rhi defines a thin, explicit rendering hardware interface:
// a small set of interfaces for GPU resources and command recording,
// together with the value types needed to describe them. It mirrors
// the shape of modern explicit graphics APIs while being implemented,
// in this module, on top of a legacy immediate-mode OpenGL backend
// (see the glbackend subpackage).
//
// No concrete resource is created directly; everything is obtained
// from a Device, which wraps a Backend implementation.
package rhi

import "errors"

// Sentinel errors returned at the point of use, following the same
// pattern as simple validation failures elsewhere in this package:
// callers compare with errors.Is.
var (
	// ErrConfiguration means a descriptor was malformed: duplicate
	// binding index, negative index, or a required field left unset.
	ErrConfiguration = errors.New("rhi: invalid configuration")

	// ErrUnsupportedFeature means the backend lacks a capability
	// required by the requested operation.
	ErrUnsupportedFeature = errors.New("rhi: unsupported feature")

	// ErrOutOfRange means a mip, layer, subregion or offset exceeds
	// the bounds of the resource it refers to.
	ErrOutOfRange = errors.New("rhi: out of range")

	// ErrContextLost means the Device is in the Lost state. No
	// operation other than Restore or Destroy succeeds while lost.
	ErrContextLost = errors.New("rhi: context lost")

	// ErrLifecycle means a destroyed resource or a finished encoder
	// was used. Per spec, this is logged and treated as a no-op by
	// callers that choose to ignore it; it is still returned so that
	// callers that care can detect it.
	ErrLifecycle = errors.New("rhi: resource no longer valid")

	// ErrPassEnded means RenderPass.End was called more than once.
	ErrPassEnded = errors.New("rhi: render pass already ended")

	// ErrEncoderFinished means CommandEncoder.Finish was called more
	// than once, or a recording method was called after Finish.
	ErrEncoderFinished = errors.New("rhi: command encoder already finished")

	// ErrUnsupportedLanguage means a ShaderModule was created with a
	// source language other than glsl (e.g. wgsl).
	ErrUnsupportedLanguage = errors.New("rhi: unsupported shader language")
)

// CompileError carries the backend compiler info log for a failed
// ShaderModule compilation.
type CompileError struct {
	Stage  ShaderStage
	Label  string
	Log    string
}

func (e *CompileError) Error() string {
	return "rhi: shader compile failed (" + e.Label + "): " + e.Log
}

// LinkError carries the backend linker info log for a failed
// RenderPipeline program link.
type LinkError struct {
	Label string
	Log   string
}

func (e *LinkError) Error() string {
	return "rhi: program link failed (" + e.Label + "): " + e.Log
}

// ReplayError describes a single command that failed during
// CommandBuffer replay. Replay errors are logged and do not abort the
// rest of the command buffer or the submission batch; Device.Submit
// returns the first one that occurred.
type ReplayError struct {
	Label string
	Op    string
	Err   error
}

func (e *ReplayError) Error() string {
	return "rhi: replay error in " + e.Op + " (" + e.Label + "): " + e.Err.Error()
}

func (e *ReplayError) Unwrap() error { return e.Err }
