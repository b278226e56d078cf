package rhi

// BackendGeneration identifies which family of the legacy backend a
// Device negotiated: Gen2x (a GL 3.3 core-class context, standing in
// for the modern immediate-mode generation) or Gen1x (a GL 2.1-class
// context queried via extensions, standing in for the legacy
// generation that lacks native UBOs, VAOs and instancing).
type BackendGeneration int

const (
	Gen1x BackendGeneration = iota
	Gen2x
)

func (g BackendGeneration) String() string {
	if g == Gen2x {
		return "2.x"
	}
	return "1.x"
}

// TextureFormat is the abstract pixel format of a Texture.
type TextureFormat int

const (
	FormatRGBA8Unorm TextureFormat = iota
	FormatRGBA8UnormSRGB
	FormatBGRA8Unorm
	FormatRG8Unorm
	FormatR8Unorm
	FormatRGBA16Float
	FormatRG16Float
	FormatR16Float
	FormatRGBA32Float
	FormatRG32Float
	FormatR32Float
	FormatDepth16Unorm
	FormatDepth24PlusStencil8
	FormatDepth32Float
	FormatStencil8
	// Compressed formats. Creation falls back to FormatRGBA8Unorm with
	// a warning when the matching extension is absent (§6).
	FormatBC1RGBAUnorm
	FormatBC3RGBAUnorm
	FormatBC7RGBAUnorm
	FormatETC2RGBA8Unorm
	FormatASTC4x4Unorm
)

// IsDepthStencil reports whether f carries a depth or stencil aspect.
func (f TextureFormat) IsDepthStencil() bool {
	switch f {
	case FormatDepth16Unorm, FormatDepth24PlusStencil8, FormatDepth32Float, FormatStencil8:
		return true
	}
	return false
}

// IsCompressed reports whether f is one of the block-compressed
// formats that require an extension and are read-only once uploaded.
func (f TextureFormat) IsCompressed() bool {
	switch f {
	case FormatBC1RGBAUnorm, FormatBC3RGBAUnorm, FormatBC7RGBAUnorm,
		FormatETC2RGBA8Unorm, FormatASTC4x4Unorm:
		return true
	}
	return false
}

// VertexFormat describes the component layout of a single vertex
// attribute.
type VertexFormat int

const (
	VertexFloat32 VertexFormat = iota
	VertexFloat32x2
	VertexFloat32x3
	VertexFloat32x4
	VertexUint8x4Norm
	VertexUint16x2
	VertexUint16x2Norm
	VertexSint32
	VertexSint32x2
	VertexSint32x3
	VertexSint32x4
)

// TextureDimension is the shape of a Texture's storage.
type TextureDimension int

const (
	Dimension1D TextureDimension = iota
	Dimension2D
	Dimension3D
	DimensionCube
)

// ViewDimension is the shape a TextureView exposes, which may differ
// from its source Texture's dimension (e.g. a single face of a cube).
type ViewDimension int

const (
	ViewDimension1D ViewDimension = iota
	ViewDimension2D
	ViewDimension2DArray
	ViewDimension3D
	ViewDimensionCube
	ViewDimensionCubeArray
)

// PrimitiveTopology selects how vertex data is assembled into
// primitives.
type PrimitiveTopology int

const (
	TopologyPointList PrimitiveTopology = iota
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleList
	TopologyTriangleStrip
)

// CullMode selects which triangle faces are discarded before
// rasterization.
type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FrontFace selects the vertex winding order considered front-facing.
type FrontFace int

const (
	FrontCCW FrontFace = iota
	FrontCW
)

// CompareFunc is a depth/stencil/sampler comparison function.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// StencilOp is a stencil-buffer update operation.
type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncrClamp
	StencilDecrClamp
	StencilInvert
	StencilIncrWrap
	StencilDecrWrap
)

// BlendFactor is a multiplicand in a blend equation.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusDstColor
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendSrcAlphaSaturated
	BlendConstantColor
	BlendOneMinusConstantColor
)

// BlendOp is the arithmetic operation combining source and
// destination terms in a blend equation.
type BlendOp int

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

// ColorWriteMask is a bitset of color channels a color target writes.
type ColorWriteMask int

const (
	ColorWriteRed ColorWriteMask = 1 << iota
	ColorWriteGreen
	ColorWriteBlue
	ColorWriteAlpha
	ColorWriteAll = ColorWriteRed | ColorWriteGreen | ColorWriteBlue | ColorWriteAlpha
)

// AddressMode selects texture-coordinate wrapping behavior outside
// the [0,1] range.
type AddressMode int

const (
	AddressRepeat AddressMode = iota
	AddressMirrorRepeat
	AddressClampToEdge
	AddressClampToBorder
)

// FilterMode selects texel filtering.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// ShaderStage is a bitset of programmable stages.
type ShaderStage int

const (
	StageVertex ShaderStage = 1 << iota
	StageFragment
	StageCompute
)

// ShaderLanguage identifies the source language of a ShaderModule.
// Only Glsl is accepted; anything else (e.g. a wgsl source) is
// rejected at creation with ErrUnsupportedLanguage.
type ShaderLanguage int

const (
	Glsl ShaderLanguage = iota
	Wgsl
)

// BufferUsage is a bitset of the ways a Buffer may be used.
type BufferUsage int

const (
	UsageVertex BufferUsage = 1 << iota
	UsageIndex
	UsageUniform
	UsageStorage
	UsageIndirect
	UsageCopySrc
	UsageCopyDst
)

// BufferHint advises the backend how a Buffer will be updated, and
// maps to the GL static/dynamic/stream draw usage hints.
type BufferHint int

const (
	HintStatic BufferHint = iota
	HintDynamic
	HintStream
)

// TextureUsage is a bitset of the ways a Texture may be used.
type TextureUsage int

const (
	UsageRenderTarget TextureUsage = 1 << iota
	UsageSampled
	UsageTextureStorage
	UsageTextureCopySrc
	UsageTextureCopyDst
)

// MapMode selects the access pattern of a Buffer.Map call.
type MapMode int

const (
	MapRead MapMode = iota
	MapWrite
	MapReadWrite
)

// LoadOp is an attachment's load operation at the start of a pass.
type LoadOp int

const (
	LoadLoad LoadOp = iota
	LoadClear
	LoadNone
)

// StoreOp is an attachment's store operation at the end of a pass.
type StoreOp int

const (
	StoreStore StoreOp = iota
	StoreDiscard
)

// IndexFormat is the element width of an index buffer.
type IndexFormat int

const (
	IndexUint16 IndexFormat = iota
	IndexUint32
)

// BufferEntryType selects how a BindGroupLayout buffer entry is
// consumed: a real uniform block (Gen2x) or a scalar-fallback set of
// plain uniforms (Gen1x, or Gen2x without UBO support).
type BufferEntryType int

const (
	BufferEntryUniform BufferEntryType = iota
	BufferEntryStorage
	BufferEntryReadOnlyStorage
)

// SampleType constrains how a texture entry may be sampled in a
// shader.
type SampleType int

const (
	SampleFloat SampleType = iota
	SampleDepth
	SampleUnfilterableFloat
	SampleSint
	SampleUint
)
