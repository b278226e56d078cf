package rhi

// Destroyer is the interface every first-class resource satisfies.
// Destroy is idempotent: calling it on an already-destroyed resource,
// or on a nil receiver, has no effect.
type Destroyer interface {
	Destroy()
	// Label returns the debug label the resource was created with,
	// threaded into every diagnostic that mentions it.
	Label() string
}

// Buffer owns one backend buffer. See spec §4.2 for the full
// contract; the methods below are the ones exposed above the
// Backend seam.
type Buffer interface {
	Destroyer

	// Size is the buffer's capacity in bytes, fixed at creation.
	Size() int64

	// Usage is the bitset the buffer was created with.
	Usage() BufferUsage

	// Update writes data into the buffer at offset. If
	// offset+len(data) exceeds Size, the update is rejected: the call
	// returns without mutating GPU state, and nothing is logged.
	Update(data []byte, offset int64)

	// Map returns a CPU-side byte region for the requested access
	// mode. On Gen1x a read mode returns a copy of the buffer's
	// CPU-side shadow (no GPU read-back) and logs nothing. In a write
	// mode it
	// allocates staging storage retained until Unmap.
	Map(mode MapMode, offset, size int64) ([]byte, error)

	// Unmap writes back any pending write-mode staging region and
	// releases mapping state. Idempotent with no active mapping.
	Unmap()

	// GetData performs a synchronous read-back. Only available on
	// Gen2x; returns (nil, ErrUnsupportedFeature) on Gen1x.
	GetData(offset, size int64) ([]byte, error)

	// SetTypeInfo attaches typed uniform metadata used by the bind
	// group applier to choose the correct scalar uniform call when a
	// native UBO is unavailable.
	SetTypeInfo(info TypeInfo)
}

// ScalarType names the GLSL scalar/vector/matrix type a Buffer's
// bytes represent, for the scalar-uniform fallback path.
type ScalarType int

const (
	TypeFloat ScalarType = iota
	TypeVec2
	TypeVec3
	TypeVec4
	TypeInt
	TypeIVec2
	TypeIVec3
	TypeIVec4
	TypeMat2
	TypeMat3
	TypeMat4
)

// TypeInfo is the typed metadata a Buffer may carry for the
// scalar-uniform fallback path (spec §4.2, §4.6).
type TypeInfo struct {
	Name string
	Type ScalarType
}

// TextureInitialData supplies initial contents at creation time,
// either raw bytes for a single mip/layer or pre-encoded compressed
// block data.
type TextureInitialData struct {
	Data       []byte
	MipLevel   int
	ArrayLayer int
}

// TextureDescriptor configures Texture creation (spec §3/§4.3).
type TextureDescriptor struct {
	Width, Height       int
	DepthOrArrayLayers  int
	MipLevelCount       int
	SampleCount         int
	Dimension           TextureDimension
	Format              TextureFormat
	Usage               TextureUsage
	Label               string
}

// Texture owns one backend texture.
type Texture interface {
	Destroyer

	Width() int
	Height() int
	DepthOrArrayLayers() int
	MipLevelCount() int
	Format() TextureFormat
	Dimension() TextureDimension

	// Downgraded3D reports whether a 3D texture request was silently
	// downgraded to a 2D texture because the backend is Gen1x.
	Downgraded3D() bool

	// Update uploads a sub-region. Compressed textures are read-only
	// after creation and return ErrUnsupportedFeature.
	Update(data []byte, x, y, z, width, height, depth, mipLevel, arrayLayer int) error

	// CreateView returns a logical subrange over this texture's
	// storage. Ranges not contained within the source return
	// ErrOutOfRange; a dimension mismatch (cube view of a non-cube
	// source, 3D view of a non-3D source) returns ErrConfiguration.
	CreateView(desc TextureViewDescriptor) (TextureView, error)
}

// TextureViewDescriptor configures TextureView creation.
type TextureViewDescriptor struct {
	Format         TextureFormat
	FormatOverride bool
	Dimension      ViewDimension
	BaseMipLevel   int
	MipLevelCount  int
	BaseArrayLayer int
	ArrayLayerCount int
	Label          string
}

// TextureView is a non-owning logical subrange over a Texture. Its
// destruction releases only the view, never the underlying texture.
type TextureView interface {
	Destroyer

	Source() Texture
	BaseMipLevel() int
	MipLevelCount() int
	BaseArrayLayer() int
	ArrayLayerCount() int
	ViewDimension() ViewDimension
}

// SamplerDescriptor configures Sampler creation (spec §4.4).
type SamplerDescriptor struct {
	AddressU, AddressV, AddressW AddressMode
	MagFilter, MinFilter        FilterMode
	MipmapFilter                FilterMode
	UseMipmap                   bool
	LODMinClamp, LODMaxClamp    float32
	Compare                     CompareFunc
	CompareEnabled              bool
	MaxAnisotropy               int
	BorderColor                 [4]float32
	Label                       string
}

// Sampler owns a native sampler handle on Gen2x, or is a passive
// parameter block applied per-texture on Gen1x.
type Sampler interface {
	Destroyer
}

// ShaderModuleDescriptor configures ShaderModule creation.
type ShaderModuleDescriptor struct {
	Language ShaderLanguage
	Stage    ShaderStage
	Source   string
	Label    string
}

// ShaderModule owns one compiled backend shader object.
type ShaderModule interface {
	Destroyer
	Stage() ShaderStage
}

// BindGroupLayoutEntry describes one binding slot. At least one of
// HasBuffer, HasTexture, HasSampler, HasStorageTexture must be true
// (spec §3's "at least one resource kind per entry" invariant);
// construction rejects an entry with none. An entry that sets more
// than one is not rejected.
type BindGroupLayoutEntry struct {
	Binding    int
	Visibility ShaderStage
	Name       string

	HasBuffer   bool
	BufferType  BufferEntryType

	HasTexture    bool
	SampleType    SampleType
	ViewDimension ViewDimension

	HasSampler bool
	Filtering  bool
	Comparison bool

	HasStorageTexture bool

	// AssociatedTextureBinding declares, for a sampler entry, which
	// texture binding it pairs with. -1 means "not declared"; see
	// BindGroupLayoutDescriptor.AllowImplicitSamplerAssociation for
	// the fallback heuristic this is meant to replace (spec §9 Open
	// Questions).
	AssociatedTextureBinding int
}

// BindGroupLayoutDescriptor configures BindGroupLayout creation.
type BindGroupLayoutDescriptor struct {
	Entries []BindGroupLayoutEntry

	// AllowImplicitSamplerAssociation enables the "preceding texture
	// binding" heuristic for sampler entries that do not declare
	// AssociatedTextureBinding. Default false: new code must declare
	// the association explicitly (spec §9 resolves this Open
	// Question in favor of the explicit form; the heuristic remains
	// available, gated, for layouts ported from older call sites).
	AllowImplicitSamplerAssociation bool

	Label string
}

// BindGroupLayout validates entry shape and derives the texture-unit
// and sampler-association maps described in spec §4.5.
type BindGroupLayout interface {
	Destroyer

	// Entries returns the public projection of the layout's entries,
	// omitting the internal texture-unit/association annotations.
	Entries() []BindGroupLayoutEntry

	// TextureUnit returns the texture unit assigned to the given
	// binding, and whether that binding is a texture entry.
	TextureUnit(binding int) (unit int, ok bool)

	// AssociatedTexture returns the texture binding associated with a
	// sampler binding, and whether an association exists.
	AssociatedTexture(samplerBinding int) (textureBinding int, ok bool)
}

// BindGroupEntryKind discriminates the resource kind of a
// BindGroupEntry at the point BindGroup validates it against its
// layout.
type BindGroupEntryKind int

const (
	EntryBuffer BindGroupEntryKind = iota
	EntryTextureView
	EntrySampler
)

// BindGroupEntry binds one resource to one binding index.
type BindGroupEntry struct {
	Binding int
	Kind    BindGroupEntryKind

	Buffer       Buffer
	BufferOffset int64
	// BufferSize, when non-zero, restricts the bound range; zero
	// means "the whole buffer from BufferOffset".
	BufferSize int64

	TextureView TextureView
	Sampler     Sampler
}

// BindGroup binds an ordered list of resources to a BindGroupLayout.
type BindGroup interface {
	Destroyer
	Layout() BindGroupLayout
}

// PipelineLayout is an ordered list of BindGroupLayouts.
type PipelineLayout interface {
	Destroyer
	BindGroupLayouts() []BindGroupLayout
}

// VertexAttribute describes one attribute within a VertexBufferLayout
// slot.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         int64
	ShaderLocation int
	Name           string
}

// VertexStepMode selects whether a vertex buffer slot advances per
// vertex or per instance.
type VertexStepMode int

const (
	StepVertex VertexStepMode = iota
	StepInstance
)

// VertexBufferLayout describes one vertex buffer slot.
type VertexBufferLayout struct {
	Stride     int64
	StepMode   VertexStepMode
	Attributes []VertexAttribute
}

// RasterState is the rasterization state of a RenderPipeline.
type RasterState struct {
	FrontFace   FrontFace
	Cull        CullMode
	DepthBias   bool
	BiasValue   float32
	BiasSlope   float32
	BiasClamp   float32
	LineWidth   float32
}

// StencilFaceState is the per-face stencil state.
type StencilFaceState struct {
	Compare     CompareFunc
	FailOp      StencilOp
	DepthFailOp StencilOp
	PassOp      StencilOp
	ReadMask    uint32
	WriteMask   uint32
}

// DepthStencilState is the depth/stencil state of a RenderPipeline.
type DepthStencilState struct {
	DepthTest   bool
	DepthWrite  bool
	DepthCompare CompareFunc
	StencilTest bool
	Front       StencilFaceState
	Back        StencilFaceState
}

// ColorTargetState is one color attachment's blend parameters.
type ColorTargetState struct {
	Format      TextureFormat
	Blend       bool
	WriteMask   ColorWriteMask
	ColorOp     BlendOp
	AlphaOp     BlendOp
	SrcColor    BlendFactor
	DstColor    BlendFactor
	SrcAlpha    BlendFactor
	DstAlpha    BlendFactor
}

// RenderPipelineDescriptor configures RenderPipeline creation (spec
// §4.7).
type RenderPipelineDescriptor struct {
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	VertexBuffers  []VertexBufferLayout
	Topology       PrimitiveTopology
	Raster         RasterState
	HasDepthStencil bool
	DepthStencil    DepthStencilState
	ColorTargets    []ColorTargetState
	Layout          PipelineLayout
	Label           string
}

// RenderPipeline is a derived artifact: a linked program, a VAO, a
// parsed attribute-location table, and an optional hidden
// push-constants UBO.
type RenderPipeline interface {
	Destroyer

	// HasPushConstants reports whether the linked program declares a
	// _PushConstants uniform block (Gen2x only).
	HasPushConstants() bool

	// UpdatePushConstants writes bytes into the push-constants UBO at
	// offset. A no-op on Gen1x or when the pipeline has no
	// push-constants block; nothing is logged in that case.
	UpdatePushConstants(offset int, data []byte)
}

// QuerySet is a set of occlusion queries (spec §10 supplement).
// Unsupported on Gen1x.
type QuerySet interface {
	Destroyer
	Count() int
	// Resolve returns the sample-passed count for each query; queries
	// that were never begun/ended resolve to 0.
	Resolve() ([]uint64, error)
}

// ComputePipeline is a stub type: the backend has no compute
// pipelines, so every method beyond Destroy returns
// ErrUnsupportedFeature (spec §1 non-goal, §10 supplement).
type ComputePipeline interface {
	Destroyer
}

// ComputePipelineDescriptor is accepted for API shape symmetry only;
// Backend.NewComputePipeline always fails with ErrUnsupportedFeature.
type ComputePipelineDescriptor struct {
	Shader ShaderModule
	Layout PipelineLayout
	Label  string
}
