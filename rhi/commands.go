package rhi

// ClearValue carries clear data for an attachment's load-clear op.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// ColorAttachment describes one color render target within a
// RenderPassDescriptor.
type ColorAttachment struct {
	View    TextureView
	Resolve TextureView
	Load    LoadOp
	Store   StoreOp
	Clear   ClearValue
}

// DepthStencilAttachment describes the depth/stencil render target
// within a RenderPassDescriptor.
type DepthStencilAttachment struct {
	View         TextureView
	DepthLoad    LoadOp
	DepthStore   StoreOp
	StencilLoad  LoadOp
	StencilStore StoreOp
	Clear        ClearValue
}

// RenderPassDescriptor configures RenderPass creation.
type RenderPassDescriptor struct {
	ColorAttachments []ColorAttachment
	HasDepthStencil  bool
	DepthStencil     DepthStencilAttachment
	Label            string
}

// Viewport defines the bounds of a viewport.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Scissor defines a scissor rectangle.
type Scissor struct {
	X, Y, Width, Height int
}

// BufferCopy describes a buffer-to-buffer copy.
type BufferCopy struct {
	Src, Dst           Buffer
	SrcOffset, DstOffset int64
	Size                int64
}

// Origin3D is a three-dimensional texture offset.
type Origin3D struct{ X, Y, Z int }

// Extent3D is a three-dimensional texture size.
type Extent3D struct{ Width, Height, Depth int }

// TextureCopy describes a texture-to-texture copy.
type TextureCopy struct {
	Src, Dst               Texture
	SrcOrigin, DstOrigin   Origin3D
	SrcLayer, SrcLevel     int
	DstLayer, DstLevel     int
	Size                   Extent3D
}

// BufferTextureCopy describes a copy between a buffer and a texture.
type BufferTextureCopy struct {
	Buffer       Buffer
	BufferOffset int64
	// BytesPerRow/RowsPerImage describe the addressing of texel data
	// within Buffer.
	BytesPerRow   int
	RowsPerImage  int
	Texture       Texture
	TextureOrigin Origin3D
	Layer, Level  int
	Size          Extent3D
}

// CommandEncoder is a mutable recorder. It is backend-agnostic at
// this level: recording only builds a tagged command sequence. After
// Finish, it becomes inert and a CommandBuffer is returned; a second
// call to Finish, or any recording call after Finish, returns
// ErrEncoderFinished.
type CommandEncoder interface {
	Destroyer

	BeginRenderPass(desc RenderPassDescriptor) (RenderPass, error)

	CopyBufferToBuffer(c BufferCopy) error
	CopyTextureToTexture(c TextureCopy) error
	CopyBufferToTexture(c BufferTextureCopy) error
	CopyTextureToBuffer(c BufferTextureCopy) error

	// CopyTextureToCanvas blits a sampled view to the Device's default
	// framebuffer, per spec §4.9's composite out-of-band operation.
	CopyTextureToCanvas(src TextureView) error

	// Finish ends recording and returns an immutable, replayable
	// CommandBuffer. The encoder itself becomes inert.
	Finish() (CommandBuffer, error)
}

// RenderPass is a nested recorder within a CommandEncoder. End must
// be called exactly once; a second call returns ErrPassEnded.
type RenderPass interface {
	SetPipeline(p RenderPipeline) error
	SetBindGroup(slot int, bg BindGroup, dynamicOffsets []int64) error
	SetVertexBuffer(slot int, buf Buffer, offset int64) error
	SetIndexBuffer(buf Buffer, format IndexFormat, offset int64) error
	SetViewport(v Viewport) error
	SetScissor(s Scissor) error
	SetBlendConstant(r, g, b, a float32) error
	SetStencilReference(value uint32) error

	BeginOcclusionQuery(set QuerySet, index int) error
	EndOcclusionQuery() error

	Draw(vertexCount, instanceCount, firstVertex, firstInstance int) error
	DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance int) error

	// DrawIndirect/DrawIndexedIndirect are rejected with
	// ErrUnsupportedFeature on Gen1x; on Gen2x, when
	// FeatureDrawIndirect is absent, replay reads the argument block
	// back to the CPU and issues the equivalent direct draw
	// (spec §10 supplement — a deliberate relaxation, not a bug).
	DrawIndirect(indirectBuf Buffer, offset int64) error
	DrawIndexedIndirect(indirectBuf Buffer, offset int64) error

	End() error
}

// CommandBuffer is an immutable recorded sequence. Execute replays it
// against the Device's backend in recording order; replay is fully
// synchronous. Individual command failures are reported as
// *ReplayError through the logger and do not stop subsequent
// commands in the same buffer.
type CommandBuffer interface {
	Execute() error
}
