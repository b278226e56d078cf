// Package glbackend is this module's only rhi.Backend implementation.
// It targets two generations of a legacy immediate-mode desktop OpenGL
// context: a GL 3.3 core-class context (Gen2x, preferred) and a GL
// 2.1-class context negotiated as a fallback and queried for
// extensions (Gen1x). The split is a runtime negotiation, not two Go
// packages, mirroring how driver/vk in this module's teacher confines
// every API-specific call behind the driver.Driver seam.
package glbackend

import (
	"fmt"
	"log"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
)

// stdLogger adapts the standard library logger to rhi.Logger, mirroring
// the unexported default rhi uses internally, for callers that pass no
// logger to OpenDevice.
type stdLogger struct{ *log.Logger }

func (l stdLogger) Warnf(format string, args ...any)  { l.Printf("[glbackend] warn: "+format, args...) }
func (l stdLogger) Errorf(format string, args ...any) { l.Printf("[glbackend] error: "+format, args...) }

// Backend is the glbackend implementation of rhi.Backend. One Backend
// is bound to one Surface's context at a time; Recreate rebinds it
// after a simulated context loss.
type Backend struct {
	gen    rhi.BackendGeneration
	caps   rhi.CapabilityRecord
	ext    map[string]bool
	logger rhi.Logger

	surface rhi.Surface
}

// OpenDevice negotiates a context against surface and returns a ready
// rhi.Device. This is the usual application entry point, analogous to
// the teacher's engine/internal/ctx.loadDriver glue: it hides Backend
// construction behind the seam Device itself only depends on.
func OpenDevice(surface rhi.Surface, desc rhi.DeviceDescriptor, logger rhi.Logger) (*rhi.Device, error) {
	if logger == nil {
		logger = stdLogger{log.Default()}
	}
	b := &Backend{logger: logger}
	caps, err := b.open(surface, desc)
	if err != nil {
		return nil, err
	}
	b.caps = caps
	return rhi.NewDevice(b, surface, desc, logger), nil
}

func (b *Backend) open(surface rhi.Surface, desc rhi.DeviceDescriptor) (rhi.CapabilityRecord, error) {
	surface.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return rhi.CapabilityRecord{}, fmt.Errorf("glbackend: gl.Init: %w", err)
	}
	b.surface = surface
	b.ext = queryExtensions()
	b.gen = negotiateGeneration(b.ext)
	return b.buildCapabilities(), nil
}

// negotiateGeneration reports Gen2x when the context exposes the
// core-profile feature set this backend needs (VAOs and UBOs, both
// core since GL 3.1/3.0), Gen1x otherwise.
func negotiateGeneration(ext map[string]bool) rhi.BackendGeneration {
	major, minor := contextVersion()
	if major > 3 || (major == 3 && minor >= 3) {
		return rhi.Gen2x
	}
	if ext["GL_ARB_vertex_array_object"] && ext["GL_ARB_uniform_buffer_object"] {
		return rhi.Gen2x
	}
	return rhi.Gen1x
}

func contextVersion() (major, minor int32) {
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	return
}

func queryExtensions() map[string]bool {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	ext := make(map[string]bool, n)
	for i := int32(0); i < n; i++ {
		ext[gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i)))] = true
	}
	return ext
}

func (b *Backend) buildCapabilities() rhi.CapabilityRecord {
	var maxTexSize, maxSamples, maxAniso int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTexSize)
	if b.gen == rhi.Gen2x {
		gl.GetIntegerv(gl.MAX_SAMPLES, &maxSamples)
	}

	var features rhi.FeatureBits
	if b.gen == rhi.Gen2x {
		features |= rhi.FeatureVAO | rhi.FeatureInstancing | rhi.FeatureMRT | rhi.FeatureUBO |
			rhi.FeatureDepthTexture | rhi.FeatureFloatTexture | rhi.FeatureOcclusionQuery
	} else {
		if b.ext["GL_ARB_vertex_array_object"] {
			features |= rhi.FeatureVAO
		}
		if b.ext["GL_ARB_instanced_arrays"] || b.ext["GL_EXT_instanced_arrays"] {
			features |= rhi.FeatureInstancing
		}
		if b.ext["GL_ARB_draw_buffers"] {
			features |= rhi.FeatureMRT
		}
		if b.ext["GL_ARB_depth_texture"] {
			features |= rhi.FeatureDepthTexture
		}
		if b.ext["GL_ARB_texture_float"] {
			features |= rhi.FeatureFloatTexture
		}
		if b.ext["GL_ARB_occlusion_query"] {
			features |= rhi.FeatureOcclusionQuery
		}
	}
	if b.ext["GL_ARB_half_float_pixel"] || b.gen == rhi.Gen2x {
		features |= rhi.FeatureHalfFloatTexture
	}
	if b.ext["GL_EXT_blend_minmax"] || b.gen == rhi.Gen2x {
		features |= rhi.FeatureAdvancedBlend
	}
	if b.ext["GL_EXT_texture_filter_anisotropic"] {
		features |= rhi.FeatureAnisotropicFiltering
		gl.GetIntegerv(gl.MAX_TEXTURE_MAX_ANISOTROPY_EXT, &maxAniso)
	}
	if b.ext["GL_ARB_texture_float"] || b.gen == rhi.Gen2x {
		features |= rhi.FeatureFloatLinearFilter
	}
	if b.ext["GL_EXT_texture_compression_s3tc"] {
		features |= rhi.FeatureCompressionBC
	}
	if b.ext["GL_ARB_ES3_compatibility"] {
		features |= rhi.FeatureCompressionETC2
	}
	if b.ext["GL_KHR_texture_compression_astc_ldr"] {
		features |= rhi.FeatureCompressionASTC
	}
	if b.ext["GL_ARB_multi_draw_indirect"] {
		features |= rhi.FeatureMultiDraw | rhi.FeatureDrawIndirect
	} else if b.ext["GL_ARB_draw_indirect"] {
		features |= rhi.FeatureDrawIndirect
	}
	if b.gen == rhi.Gen2x || b.ext["GL_ARB_texture_border_clamp"] {
		features |= rhi.FeatureBorderClamp
	}

	return rhi.CapabilityRecord{
		Generation:            b.gen,
		DeviceName:            gl.GoStr(gl.GetString(gl.RENDERER)),
		Vendor:                gl.GoStr(gl.GetString(gl.VENDOR)),
		MaxTextureSize:        int(maxTexSize),
		MaxBindings:           maxTextureUnitCount(),
		Features:              features,
		MaxAnisotropy:         float32(maxAniso),
		MaxSamples:            int(maxSamples),
		ShaderLanguageVersion: gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}
}

func maxTextureUnitCount() int {
	var n int32
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &n)
	if n <= 0 {
		return 8
	}
	return int(n)
}

func (b *Backend) Destroy()      {}
func (b *Backend) Label() string { return "glbackend" }

func (b *Backend) Capabilities() rhi.CapabilityRecord { return b.caps }

// Recreate re-negotiates the context against surface, implementing
// the Device.Restore half of spec §4.10. Every resource created
// against the prior context is invalid; glbackend keeps no global
// registry of them, trusting Device's tracker to discard its handles.
func (b *Backend) Recreate(surface rhi.Surface, desc rhi.DeviceDescriptor) (rhi.CapabilityRecord, error) {
	caps, err := b.open(surface, desc)
	if err != nil {
		return rhi.CapabilityRecord{}, err
	}
	b.caps = caps
	return caps, nil
}

func (b *Backend) haveExt(name string) bool { return b.ext[name] }
