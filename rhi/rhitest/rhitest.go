// Package rhitest provides a fully in-memory fake rhi.Backend, used
// by this module's own package tests so that tracker accounting,
// bind-group-layout derivation, view containment, and encoder/pass
// lifecycle errors can be exercised without a real GL context.
// Recorded commands are not kept and Execute does nothing. It mirrors the role driver/vk/test_bridge.go plays in the
// teacher repo: a bridge that lets package tests run without
// hardware.
package rhitest

import (
	"fmt"

	"github.com/kestrelgpu/rhi/rhi"
	"github.com/kestrelgpu/rhi/rhi/internal/bindlayout"
)

// Backend is a fake rhi.Backend holding everything in Go memory. Set
// Generation before use to simulate Gen1x or Gen2x behavior.
type Backend struct {
	Generation      rhi.BackendGeneration
	MaxTextureUnits int
}

// New returns a fake Backend defaulted to Gen2x with 16 texture
// units, matching a typical legacy desktop GL minimum.
func New() *Backend {
	return &Backend{Generation: rhi.Gen2x, MaxTextureUnits: 16}
}

func (b *Backend) Destroy() {}
func (b *Backend) Label() string { return "rhitest" }

func (b *Backend) Capabilities() rhi.CapabilityRecord {
	features := rhi.FeatureVAO | rhi.FeatureInstancing | rhi.FeatureMRT
	if b.Generation == rhi.Gen2x {
		features |= rhi.FeatureUBO | rhi.FeatureOcclusionQuery | rhi.FeatureDepthTexture
	}
	return rhi.CapabilityRecord{
		Generation:     b.Generation,
		DeviceName:     "rhitest fake device",
		Vendor:         "rhitest",
		MaxTextureSize: 4096,
		MaxBindings:    b.MaxTextureUnits,
		Features:       features,
		MaxSamples:     4,
	}
}

func (b *Backend) Recreate(surface rhi.Surface, desc rhi.DeviceDescriptor) (rhi.CapabilityRecord, error) {
	return b.Capabilities(), nil
}

// --- buffer -------------------------------------------------------

type buffer struct {
	size  int64
	usage rhi.BufferUsage
	data  []byte
	label string
	typ   *rhi.TypeInfo
	mapped []byte
	mapMode rhi.MapMode
	mapOff int64
}

func (b *Backend) NewBuffer(desc rhi.BufferDescriptor, initial []byte) (rhi.Buffer, error) {
	if desc.Size < 0 {
		return nil, rhi.ErrConfiguration
	}
	buf := &buffer{size: desc.Size, usage: desc.Usage, data: make([]byte, desc.Size), label: desc.Label}
	if initial != nil {
		copy(buf.data, initial)
	}
	return buf, nil
}

func (b *buffer) Destroy()      {}
func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() int64   { return b.size }
func (b *buffer) Usage() rhi.BufferUsage { return b.usage }

func (b *buffer) Update(data []byte, offset int64) {
	if offset < 0 || offset+int64(len(data)) > b.size {
		return
	}
	copy(b.data[offset:], data)
}

func (b *buffer) Map(mode rhi.MapMode, offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > b.size {
		return nil, rhi.ErrOutOfRange
	}
	b.mapMode = mode
	b.mapOff = offset
	if mode == rhi.MapWrite {
		b.mapped = make([]byte, size)
		return b.mapped, nil
	}
	b.mapped = append([]byte(nil), b.data[offset:offset+size]...)
	return b.mapped, nil
}

func (b *buffer) Unmap() {
	if b.mapped == nil {
		return
	}
	if b.mapMode == rhi.MapWrite || b.mapMode == rhi.MapReadWrite {
		copy(b.data[b.mapOff:], b.mapped)
	}
	b.mapped = nil
}

func (b *buffer) GetData(offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > b.size {
		return nil, rhi.ErrOutOfRange
	}
	return append([]byte(nil), b.data[offset:offset+size]...), nil
}

func (b *buffer) SetTypeInfo(info rhi.TypeInfo) { b.typ = &info }

// --- texture --------------------------------------------------------

type texture struct {
	desc rhi.TextureDescriptor
}

func (b *Backend) NewTexture(desc rhi.TextureDescriptor, initial []rhi.TextureInitialData) (rhi.Texture, error) {
	if desc.Dimension == rhi.DimensionCube && desc.DepthOrArrayLayers != 6 {
		return nil, rhi.ErrConfiguration
	}
	if desc.MipLevelCount < 1 {
		desc.MipLevelCount = 1
	}
	return &texture{desc: desc}, nil
}

func (t *texture) Destroy()      {}
func (t *texture) Label() string { return t.desc.Label }
func (t *texture) Width() int    { return t.desc.Width }
func (t *texture) Height() int   { return t.desc.Height }
func (t *texture) DepthOrArrayLayers() int { return t.desc.DepthOrArrayLayers }
func (t *texture) MipLevelCount() int      { return t.desc.MipLevelCount }
func (t *texture) Format() rhi.TextureFormat { return t.desc.Format }
func (t *texture) Dimension() rhi.TextureDimension { return t.desc.Dimension }
func (t *texture) Downgraded3D() bool { return false }

func (t *texture) Update(data []byte, x, y, z, width, height, depth, mipLevel, arrayLayer int) error {
	if mipLevel < 0 || mipLevel >= t.desc.MipLevelCount {
		return rhi.ErrOutOfRange
	}
	if t.desc.Format.IsCompressed() {
		return rhi.ErrUnsupportedFeature
	}
	return nil
}

func (t *texture) CreateView(desc rhi.TextureViewDescriptor) (rhi.TextureView, error) {
	if desc.MipLevelCount == 0 {
		desc.MipLevelCount = t.desc.MipLevelCount - desc.BaseMipLevel
	}
	if desc.ArrayLayerCount == 0 {
		desc.ArrayLayerCount = t.desc.DepthOrArrayLayers - desc.BaseArrayLayer
	}
	if desc.BaseMipLevel+desc.MipLevelCount > t.desc.MipLevelCount {
		return nil, rhi.ErrOutOfRange
	}
	if desc.BaseArrayLayer+desc.ArrayLayerCount > t.desc.DepthOrArrayLayers {
		return nil, rhi.ErrOutOfRange
	}
	if desc.Dimension == rhi.ViewDimensionCube && t.desc.Dimension != rhi.DimensionCube {
		return nil, rhi.ErrConfiguration
	}
	if desc.Dimension == rhi.ViewDimension3D && t.desc.Dimension != rhi.Dimension3D {
		return nil, rhi.ErrConfiguration
	}
	return &textureView{src: t, desc: desc}, nil
}

type textureView struct {
	src  *texture
	desc rhi.TextureViewDescriptor
}

func (v *textureView) Destroy()      {}
func (v *textureView) Label() string { return v.desc.Label }
func (v *textureView) Source() rhi.Texture { return v.src }
func (v *textureView) BaseMipLevel() int   { return v.desc.BaseMipLevel }
func (v *textureView) MipLevelCount() int  { return v.desc.MipLevelCount }
func (v *textureView) BaseArrayLayer() int { return v.desc.BaseArrayLayer }
func (v *textureView) ArrayLayerCount() int { return v.desc.ArrayLayerCount }
func (v *textureView) ViewDimension() rhi.ViewDimension { return v.desc.Dimension }

// --- sampler / shader -------------------------------------------------

type sampler struct{ desc rhi.SamplerDescriptor }

func (b *Backend) NewSampler(desc rhi.SamplerDescriptor) (rhi.Sampler, error) {
	return &sampler{desc: desc}, nil
}
func (s *sampler) Destroy()      {}
func (s *sampler) Label() string { return s.desc.Label }

type shaderModule struct{ desc rhi.ShaderModuleDescriptor }

func (b *Backend) NewShaderModule(desc rhi.ShaderModuleDescriptor) (rhi.ShaderModule, error) {
	if desc.Source == "" {
		return nil, &rhi.CompileError{Stage: desc.Stage, Label: desc.Label, Log: "empty source"}
	}
	return &shaderModule{desc: desc}, nil
}
func (s *shaderModule) Destroy()      {}
func (s *shaderModule) Label() string { return s.desc.Label }
func (s *shaderModule) Stage() rhi.ShaderStage { return s.desc.Stage }

// --- bind group layout / bind group ------------------------------------

type bindGroupLayout struct {
	entries []rhi.BindGroupLayoutEntry
	derived bindlayout.Result
	label   string
}

func (b *Backend) NewBindGroupLayout(desc rhi.BindGroupLayoutDescriptor) (rhi.BindGroupLayout, error) {
	in := make([]bindlayout.Entry, len(desc.Entries))
	for i, e := range desc.Entries {
		assoc := e.AssociatedTextureBinding
		if !e.HasSampler {
			assoc = -1
		}
		in[i] = bindlayout.Entry{
			Binding:                  e.Binding,
			HasBuffer:                e.HasBuffer,
			HasTexture:               e.HasTexture,
			HasSampler:               e.HasSampler,
			HasStorageTexture:        e.HasStorageTexture,
			AssociatedTextureBinding: assoc,
		}
	}
	res, err := bindlayout.Build(in, b.MaxTextureUnits, desc.AllowImplicitSamplerAssociation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rhi.ErrConfiguration, err)
	}
	return &bindGroupLayout{entries: desc.Entries, derived: res, label: desc.Label}, nil
}

func (l *bindGroupLayout) Destroy()      {}
func (l *bindGroupLayout) Label() string { return l.label }
func (l *bindGroupLayout) Entries() []rhi.BindGroupLayoutEntry { return l.entries }

func (l *bindGroupLayout) TextureUnit(binding int) (int, bool) {
	u, ok := l.derived.TextureUnits[binding]
	return u, ok
}

func (l *bindGroupLayout) AssociatedTexture(samplerBinding int) (int, bool) {
	t, ok := l.derived.SamplerAssociations[samplerBinding]
	return t, ok
}

type bindGroup struct {
	layout rhi.BindGroupLayout
}

func (b *Backend) NewBindGroup(layout rhi.BindGroupLayout, entries []rhi.BindGroupEntry) (rhi.BindGroup, error) {
	byBinding := make(map[int]rhi.BindGroupLayoutEntry)
	for _, e := range layout.Entries() {
		byBinding[e.Binding] = e
	}
	for _, e := range entries {
		le, ok := byBinding[e.Binding]
		if !ok {
			return nil, rhi.ErrConfiguration
		}
		switch e.Kind {
		case rhi.EntryBuffer:
			if !le.HasBuffer {
				return nil, rhi.ErrConfiguration
			}
		case rhi.EntryTextureView:
			if !le.HasTexture && !le.HasStorageTexture {
				return nil, rhi.ErrConfiguration
			}
		case rhi.EntrySampler:
			if !le.HasSampler {
				return nil, rhi.ErrConfiguration
			}
		}
	}
	return &bindGroup{layout: layout}, nil
}

func (g *bindGroup) Destroy()      {}
func (g *bindGroup) Label() string { return "" }
func (g *bindGroup) Layout() rhi.BindGroupLayout { return g.layout }

// --- pipeline layout / render pipeline ----------------------------------

type pipelineLayout struct{ layouts []rhi.BindGroupLayout }

func (b *Backend) NewPipelineLayout(layouts []rhi.BindGroupLayout) (rhi.PipelineLayout, error) {
	return &pipelineLayout{layouts: layouts}, nil
}
func (p *pipelineLayout) Destroy()      {}
func (p *pipelineLayout) Label() string { return "" }
func (p *pipelineLayout) BindGroupLayouts() []rhi.BindGroupLayout { return p.layouts }

type renderPipeline struct {
	desc           rhi.RenderPipelineDescriptor
	pushConstants  bool
	pushConstantBuf []byte
	gen            rhi.BackendGeneration
}

func (b *Backend) NewRenderPipeline(desc rhi.RenderPipelineDescriptor) (rhi.RenderPipeline, error) {
	if desc.VertexShader == nil || desc.FragmentShader == nil {
		return nil, &rhi.LinkError{Label: desc.Label, Log: "missing shader stage"}
	}
	return &renderPipeline{desc: desc, pushConstants: b.Generation == rhi.Gen2x, pushConstantBuf: make([]byte, 256), gen: b.Generation}, nil
}

func (p *renderPipeline) Destroy()      {}
func (p *renderPipeline) Label() string { return p.desc.Label }
func (p *renderPipeline) HasPushConstants() bool { return p.pushConstants }

func (p *renderPipeline) UpdatePushConstants(offset int, data []byte) {
	if !p.pushConstants || p.gen != rhi.Gen2x {
		return
	}
	if offset < 0 || offset+len(data) > len(p.pushConstantBuf) {
		return
	}
	copy(p.pushConstantBuf[offset:], data)
}

// --- compute / query stubs ----------------------------------------------

type computePipeline struct{}

func (c *computePipeline) Destroy()      {}
func (c *computePipeline) Label() string { return "" }

func (b *Backend) NewComputePipeline(desc rhi.ComputePipelineDescriptor) (rhi.ComputePipeline, error) {
	return nil, rhi.ErrUnsupportedFeature
}

type querySet struct {
	results []uint64
}

func (b *Backend) NewQuerySet(count int) (rhi.QuerySet, error) {
	if b.Generation != rhi.Gen2x {
		return nil, rhi.ErrUnsupportedFeature
	}
	return &querySet{results: make([]uint64, count)}, nil
}

func (q *querySet) Destroy()      {}
func (q *querySet) Label() string { return "" }
func (q *querySet) Count() int    { return len(q.results) }
func (q *querySet) Resolve() ([]uint64, error) { return q.results, nil }

// --- command encoder / render pass / command buffer ----------------------

type encoder struct {
	finished bool
}

func (b *Backend) NewCommandEncoder() (rhi.CommandEncoder, error) {
	return &encoder{}, nil
}

func (e *encoder) Destroy()      {}
func (e *encoder) Label() string { return "" }

func (e *encoder) BeginRenderPass(desc rhi.RenderPassDescriptor) (rhi.RenderPass, error) {
	if e.finished {
		return nil, rhi.ErrEncoderFinished
	}
	return &pass{}, nil
}

func (e *encoder) CopyBufferToBuffer(c rhi.BufferCopy) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	return nil
}
func (e *encoder) CopyTextureToTexture(c rhi.TextureCopy) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	return nil
}
func (e *encoder) CopyBufferToTexture(c rhi.BufferTextureCopy) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	return nil
}
func (e *encoder) CopyTextureToBuffer(c rhi.BufferTextureCopy) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	return nil
}
func (e *encoder) CopyTextureToCanvas(src rhi.TextureView) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	return nil
}

func (e *encoder) Finish() (rhi.CommandBuffer, error) {
	if e.finished {
		return nil, rhi.ErrEncoderFinished
	}
	e.finished = true
	return &commandBuffer{}, nil
}

type pass struct {
	ended bool
}

func (p *pass) end() error {
	if p.ended {
		return rhi.ErrPassEnded
	}
	p.ended = true
	return nil
}

func (p *pass) SetPipeline(rp rhi.RenderPipeline) error                          { return nil }
func (p *pass) SetBindGroup(slot int, bg rhi.BindGroup, off []int64) error        { return nil }
func (p *pass) SetVertexBuffer(slot int, buf rhi.Buffer, offset int64) error      { return nil }
func (p *pass) SetIndexBuffer(buf rhi.Buffer, format rhi.IndexFormat, offset int64) error { return nil }
func (p *pass) SetViewport(v rhi.Viewport) error                                  { return nil }
func (p *pass) SetScissor(s rhi.Scissor) error                                    { return nil }
func (p *pass) SetBlendConstant(r, g, bch, a float32) error                       { return nil }
func (p *pass) SetStencilReference(value uint32) error                           { return nil }
func (p *pass) BeginOcclusionQuery(set rhi.QuerySet, index int) error            { return nil }
func (p *pass) EndOcclusionQuery() error                                         { return nil }
func (p *pass) Draw(vc, ic, fv, fi int) error                                    { return nil }
func (p *pass) DrawIndexed(ic, inst, fi, bv, fin int) error                      { return nil }

// The fake rejects indirect draws on every generation, Gen2x included.
func (p *pass) DrawIndirect(buf rhi.Buffer, offset int64) error                  { return rhi.ErrUnsupportedFeature }
func (p *pass) DrawIndexedIndirect(buf rhi.Buffer, offset int64) error           { return rhi.ErrUnsupportedFeature }
func (p *pass) End() error                                                       { return p.end() }

type commandBuffer struct{}

func (c *commandBuffer) Execute() error { return nil }
