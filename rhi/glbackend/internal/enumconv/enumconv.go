// Package enumconv is the format/enum translator of spec §4.1: pure
// functions mapping the abstract rhi enums to legacy-backend GL
// constants. Nothing here touches a live context; every function is
// table-driven and unit-testable without a GPU.
package enumconv

import (
	"errors"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
)

// ErrUnsupportedFormat means a required extension is missing and no
// fallback mapping exists.
var ErrUnsupportedFormat = errors.New("enumconv: unsupported format")

// TextureFormatGL returns the (internalFormat, format, type) triple
// for f under generation gen. On Gen1x, legacy LUMINANCE/
// LUMINANCE_ALPHA/RGBA combinations are used instead of sized
// internal formats. haveExt reports whether the extension needed for
// a compressed format is present; when it is not, the caller should
// fall back to FormatRGBA8Unorm and log a warning rather than treat
// this as an error, except where no meaningful fallback exists.
func TextureFormatGL(f rhi.TextureFormat, gen rhi.BackendGeneration, haveExt func(name string) bool) (internalFormat, format, type_ uint32, err error) {
	if f.IsCompressed() {
		ext, ok := compressedExt[f]
		if !ok || !haveExt(ext) {
			return 0, 0, 0, ErrUnsupportedFormat
		}
		return compressedInternalFormat[f], gl.RGBA, gl.UNSIGNED_BYTE, nil
	}

	if gen == rhi.Gen1x {
		switch f {
		case rhi.FormatR8Unorm:
			return gl.LUMINANCE, gl.LUMINANCE, gl.UNSIGNED_BYTE, nil
		case rhi.FormatRG8Unorm:
			return gl.LUMINANCE_ALPHA, gl.LUMINANCE_ALPHA, gl.UNSIGNED_BYTE, nil
		case rhi.FormatRGBA8Unorm, rhi.FormatRGBA8UnormSRGB, rhi.FormatBGRA8Unorm:
			return gl.RGBA, gl.RGBA, gl.UNSIGNED_BYTE, nil
		case rhi.FormatDepth16Unorm:
			return gl.DEPTH_COMPONENT, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT, nil
		case rhi.FormatDepth24PlusStencil8:
			return gl.DEPTH_STENCIL, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8, nil
		default:
			// Float formats have no legacy-generation equivalent
			// without an extension; fail open with the closest 8-bit
			// mapping, matching §4.1's "select the closest compatible
			// mapping."
			return gl.RGBA, gl.RGBA, gl.UNSIGNED_BYTE, nil
		}
	}

	switch f {
	case rhi.FormatRGBA8Unorm:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case rhi.FormatRGBA8UnormSRGB:
		return gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case rhi.FormatBGRA8Unorm:
		return gl.RGBA8, gl.BGRA, gl.UNSIGNED_BYTE, nil
	case rhi.FormatRG8Unorm:
		return gl.RG8, gl.RG, gl.UNSIGNED_BYTE, nil
	case rhi.FormatR8Unorm:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE, nil
	case rhi.FormatRGBA16Float:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT, nil
	case rhi.FormatRG16Float:
		return gl.RG16F, gl.RG, gl.HALF_FLOAT, nil
	case rhi.FormatR16Float:
		return gl.R16F, gl.RED, gl.HALF_FLOAT, nil
	case rhi.FormatRGBA32Float:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT, nil
	case rhi.FormatRG32Float:
		return gl.RG32F, gl.RG, gl.FLOAT, nil
	case rhi.FormatR32Float:
		return gl.R32F, gl.RED, gl.FLOAT, nil
	case rhi.FormatDepth16Unorm:
		return gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT, nil
	case rhi.FormatDepth24PlusStencil8:
		return gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8, nil
	case rhi.FormatDepth32Float:
		return gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT, nil
	case rhi.FormatStencil8:
		return gl.STENCIL_INDEX8, gl.STENCIL_INDEX, gl.UNSIGNED_BYTE, nil
	}
	return 0, 0, 0, ErrUnsupportedFormat
}

var compressedExt = map[rhi.TextureFormat]string{
	rhi.FormatBC1RGBAUnorm:   "GL_EXT_texture_compression_s3tc",
	rhi.FormatBC3RGBAUnorm:   "GL_EXT_texture_compression_s3tc",
	rhi.FormatBC7RGBAUnorm:   "GL_ARB_texture_compression_bptc",
	rhi.FormatETC2RGBA8Unorm: "GL_ARB_ES3_compatibility",
	rhi.FormatASTC4x4Unorm:   "GL_KHR_texture_compression_astc_ldr",
}

var compressedInternalFormat = map[rhi.TextureFormat]uint32{
	rhi.FormatBC1RGBAUnorm:   gl.COMPRESSED_RGBA_S3TC_DXT1_EXT,
	rhi.FormatBC3RGBAUnorm:   gl.COMPRESSED_RGBA_S3TC_DXT5_EXT,
	rhi.FormatBC7RGBAUnorm:   gl.COMPRESSED_RGBA_BPTC_UNORM,
	rhi.FormatETC2RGBA8Unorm: gl.COMPRESSED_RGBA8_ETC2_EAC,
	rhi.FormatASTC4x4Unorm:   gl.COMPRESSED_RGBA_ASTC_4x4_KHR,
}

// VertexFormatGL returns the (componentType, componentCount,
// normalized) triple for f.
func VertexFormatGL(f rhi.VertexFormat) (componentType uint32, componentCount int32, normalized bool) {
	switch f {
	case rhi.VertexFloat32:
		return gl.FLOAT, 1, false
	case rhi.VertexFloat32x2:
		return gl.FLOAT, 2, false
	case rhi.VertexFloat32x3:
		return gl.FLOAT, 3, false
	case rhi.VertexFloat32x4:
		return gl.FLOAT, 4, false
	case rhi.VertexUint8x4Norm:
		return gl.UNSIGNED_BYTE, 4, true
	case rhi.VertexUint16x2:
		return gl.UNSIGNED_SHORT, 2, false
	case rhi.VertexUint16x2Norm:
		return gl.UNSIGNED_SHORT, 2, true
	case rhi.VertexSint32:
		return gl.INT, 1, false
	case rhi.VertexSint32x2:
		return gl.INT, 2, false
	case rhi.VertexSint32x3:
		return gl.INT, 3, false
	case rhi.VertexSint32x4:
		return gl.INT, 4, false
	}
	return gl.FLOAT, 1, false
}

// AddressModeGL maps an address mode to its GL wrap constant.
// ClampToBorder degrades to ClampToEdge when haveBorderClamp is
// false; the caller is responsible for logging the degradation once
// per sampler, per §4.4.
func AddressModeGL(mode rhi.AddressMode, haveBorderClamp bool) (value uint32, degraded bool) {
	switch mode {
	case rhi.AddressRepeat:
		return gl.REPEAT, false
	case rhi.AddressMirrorRepeat:
		return gl.MIRRORED_REPEAT, false
	case rhi.AddressClampToEdge:
		return gl.CLAMP_TO_EDGE, false
	case rhi.AddressClampToBorder:
		if haveBorderClamp {
			return gl.CLAMP_TO_BORDER, false
		}
		return gl.CLAMP_TO_EDGE, true
	}
	return gl.CLAMP_TO_EDGE, false
}

// MinFilterGL combines a min filter with a mipmap filter into one of
// the four *_MIPMAP_* GL combinations, or the plain non-mipmapped
// variant when useMipmap is false.
func MinFilterGL(min, mipmap rhi.FilterMode, useMipmap bool) uint32 {
	if !useMipmap {
		if min == rhi.FilterLinear {
			return gl.LINEAR
		}
		return gl.NEAREST
	}
	switch {
	case min == rhi.FilterNearest && mipmap == rhi.FilterNearest:
		return gl.NEAREST_MIPMAP_NEAREST
	case min == rhi.FilterNearest && mipmap == rhi.FilterLinear:
		return gl.NEAREST_MIPMAP_LINEAR
	case min == rhi.FilterLinear && mipmap == rhi.FilterNearest:
		return gl.LINEAR_MIPMAP_NEAREST
	default:
		return gl.LINEAR_MIPMAP_LINEAR
	}
}

// MagFilterGL maps a mag filter (mipmapping never applies to
// magnification).
func MagFilterGL(mag rhi.FilterMode) uint32 {
	if mag == rhi.FilterLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

// CompareFuncGL maps a comparison function.
func CompareFuncGL(f rhi.CompareFunc) uint32 {
	switch f {
	case rhi.CompareNever:
		return gl.NEVER
	case rhi.CompareLess:
		return gl.LESS
	case rhi.CompareEqual:
		return gl.EQUAL
	case rhi.CompareLessEqual:
		return gl.LEQUAL
	case rhi.CompareGreater:
		return gl.GREATER
	case rhi.CompareNotEqual:
		return gl.NOTEQUAL
	case rhi.CompareGreaterEqual:
		return gl.GEQUAL
	default:
		return gl.ALWAYS
	}
}

// StencilOpGL maps a stencil update operation.
func StencilOpGL(op rhi.StencilOp) uint32 {
	switch op {
	case rhi.StencilKeep:
		return gl.KEEP
	case rhi.StencilZero:
		return gl.ZERO
	case rhi.StencilReplace:
		return gl.REPLACE
	case rhi.StencilIncrClamp:
		return gl.INCR
	case rhi.StencilDecrClamp:
		return gl.DECR
	case rhi.StencilInvert:
		return gl.INVERT
	case rhi.StencilIncrWrap:
		return gl.INCR_WRAP
	case rhi.StencilDecrWrap:
		return gl.DECR_WRAP
	}
	return gl.KEEP
}

// BlendFactorGL maps a blend factor. BlendConstantColor/
// BlendOneMinusConstantColor require SetBlendConstant to have been
// called on the owning pass.
func BlendFactorGL(f rhi.BlendFactor) uint32 {
	switch f {
	case rhi.BlendZero:
		return gl.ZERO
	case rhi.BlendOne:
		return gl.ONE
	case rhi.BlendSrcColor:
		return gl.SRC_COLOR
	case rhi.BlendOneMinusSrcColor:
		return gl.ONE_MINUS_SRC_COLOR
	case rhi.BlendSrcAlpha:
		return gl.SRC_ALPHA
	case rhi.BlendOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case rhi.BlendDstColor:
		return gl.DST_COLOR
	case rhi.BlendOneMinusDstColor:
		return gl.ONE_MINUS_DST_COLOR
	case rhi.BlendDstAlpha:
		return gl.DST_ALPHA
	case rhi.BlendOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case rhi.BlendSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE
	case rhi.BlendConstantColor:
		return gl.CONSTANT_COLOR
	case rhi.BlendOneMinusConstantColor:
		return gl.ONE_MINUS_CONSTANT_COLOR
	}
	return gl.ONE
}

// BlendOpGL maps a blend equation operation. Min/Max require
// GL_EXT_blend_minmax on Gen1x; the caller gates on
// FeatureAdvancedBlend and falls back to BlendOpAdd with a warning
// when absent.
func BlendOpGL(op rhi.BlendOp) uint32 {
	switch op {
	case rhi.BlendOpAdd:
		return gl.FUNC_ADD
	case rhi.BlendOpSubtract:
		return gl.FUNC_SUBTRACT
	case rhi.BlendOpReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case rhi.BlendOpMin:
		return gl.MIN
	case rhi.BlendOpMax:
		return gl.MAX
	}
	return gl.FUNC_ADD
}

// PrimitiveTopologyGL maps a primitive topology.
func PrimitiveTopologyGL(t rhi.PrimitiveTopology) uint32 {
	switch t {
	case rhi.TopologyPointList:
		return gl.POINTS
	case rhi.TopologyLineList:
		return gl.LINES
	case rhi.TopologyLineStrip:
		return gl.LINE_STRIP
	case rhi.TopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	default:
		return gl.TRIANGLES
	}
}

// CullModeGL reports whether culling is enabled and which face to
// cull.
func CullModeGL(c rhi.CullMode) (enable bool, face uint32) {
	switch c {
	case rhi.CullFront:
		return true, gl.FRONT
	case rhi.CullBack:
		return true, gl.BACK
	default:
		return false, gl.BACK
	}
}

// FrontFaceGL maps a winding order.
func FrontFaceGL(f rhi.FrontFace) uint32 {
	if f == rhi.FrontCW {
		return gl.CW
	}
	return gl.CCW
}

// IndexFormatGL maps an index format to its GL element type.
func IndexFormatGL(f rhi.IndexFormat) uint32 {
	if f == rhi.IndexUint32 {
		return gl.UNSIGNED_INT
	}
	return gl.UNSIGNED_SHORT
}
