package rhi

// Backend is the interface that provides methods for creating GPU
// resources and is used to execute commands. It is the polymorphism
// seam named in spec §9: one concrete implementation exists per
// target graphics API, and a future second backend substitutes here
// without callers of Device changing. glbackend.Backend is this
// module's only implementation, targeting the legacy immediate-mode
// generations described by BackendGeneration.
type Backend interface {
	Destroyer

	// Capabilities returns the immutable capability record for the
	// Device's current context generation.
	Capabilities() CapabilityRecord

	NewBuffer(desc BufferDescriptor, initial []byte) (Buffer, error)
	NewTexture(desc TextureDescriptor, initial []TextureInitialData) (Texture, error)
	NewSampler(desc SamplerDescriptor) (Sampler, error)
	NewShaderModule(desc ShaderModuleDescriptor) (ShaderModule, error)
	NewBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error)
	NewBindGroup(layout BindGroupLayout, entries []BindGroupEntry) (BindGroup, error)
	NewPipelineLayout(layouts []BindGroupLayout) (PipelineLayout, error)
	NewRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)
	NewComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error)
	NewCommandEncoder() (CommandEncoder, error)
	NewQuerySet(count int) (QuerySet, error)

	// Recreate re-acquires a context on surface using desc, rebuilding
	// the capability record. Called by Device.Restore after a
	// simulated context loss; all resources created against the prior
	// context are invalid afterward (spec §4.10).
	Recreate(surface Surface, desc DeviceDescriptor) (CapabilityRecord, error)
}

// BufferDescriptor configures Buffer creation (spec §3/§4.2).
type BufferDescriptor struct {
	Size  int64
	Usage BufferUsage
	Hint  BufferHint
	Label string
}
