package glbackend

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
	"github.com/kestrelgpu/rhi/rhi/internal/bindlayout"
)

// bindGroupLayout derives texture-unit and sampler-association maps
// using the shared bindlayout algorithm (spec §4.5), so the derivation
// itself is identical to rhitest's fake.
type bindGroupLayout struct {
	entries []rhi.BindGroupLayoutEntry
	byBind  map[int]rhi.BindGroupLayoutEntry
	derived bindlayout.Result
	label   string
}

func (b *Backend) NewBindGroupLayout(desc rhi.BindGroupLayoutDescriptor) (rhi.BindGroupLayout, error) {
	in := make([]bindlayout.Entry, len(desc.Entries))
	byBind := make(map[int]rhi.BindGroupLayoutEntry, len(desc.Entries))
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
		byBind[e.Binding] = e
	}
	maxUnits := b.caps.MaxBindings
	res, err := bindlayout.Build(in, maxUnits, desc.AllowImplicitSamplerAssociation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rhi.ErrConfiguration, err)
	}
	if res.Exhausted {
		b.logger.Warnf("bind group layout %q: more texture entries than available texture units (%d)", desc.Label, maxUnits)
	}
	return &bindGroupLayout{entries: desc.Entries, byBind: byBind, derived: res, label: desc.Label}, nil
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

// bindGroup binds a concrete set of resources to a layout's slots. It
// holds onto the original entries (not copies of the underlying
// buffer/texture/sampler) so applyBindGroup in commands.go can push
// them to GL state at draw time.
type bindGroup struct {
	layout  *bindGroupLayout
	entries []rhi.BindGroupEntry
}

func (b *Backend) NewBindGroup(layout rhi.BindGroupLayout, entries []rhi.BindGroupEntry) (rhi.BindGroup, error) {
	l, ok := layout.(*bindGroupLayout)
	if !ok {
		return nil, rhi.ErrConfiguration
	}
	for _, e := range entries {
		le, ok := l.byBind[e.Binding]
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
	return &bindGroup{layout: l, entries: entries}, nil
}

func (g *bindGroup) Destroy()                    {}
func (g *bindGroup) Label() string                { return "" }
func (g *bindGroup) Layout() rhi.BindGroupLayout { return g.layout }

// apply pushes every entry in g to GL state against program, the
// currently-bound pipeline's linked program (spec §4.6). Buffer
// entries go to a uniform block by name on Gen2x when the layout
// declares a uniform buffer, else through the scalar-uniform fallback;
// textures go to their derived unit with the sampler uniform pointed
// at it; samplers apply either to a native sampler object (Gen2x) or
// directly onto the bound texture's parameters (Gen1x), per the
// association derived by bindlayout.
func (g *bindGroup) apply(gen rhi.BackendGeneration, program uint32, logger rhi.Logger) {
	texByBinding := make(map[int]*texture)
	for _, e := range g.entries {
		le, ok := g.layout.byBind[e.Binding]
		if !ok {
			continue
		}
		switch e.Kind {
		case rhi.EntryBuffer:
			buf, ok := e.Buffer.(*buffer)
			if !ok {
				continue
			}
			size := e.BufferSize
			if size == 0 {
				size = buf.size - e.BufferOffset
			}
			if gen == rhi.Gen2x && le.BufferType == rhi.BufferEntryUniform {
				blockIndex := gl.GetUniformBlockIndex(program, gl.Str(le.Name+"\x00"))
				if blockIndex == gl.INVALID_INDEX {
					logger.Warnf("bind group: no uniform block named %q in program", le.Name)
					continue
				}
				gl.UniformBlockBinding(program, blockIndex, uint32(e.Binding))
				gl.BindBufferRange(gl.UNIFORM_BUFFER, uint32(e.Binding), buf.id, int(e.BufferOffset), int(size))
			} else {
				dispatchScalarUniform(program, le.Name, buf, e.BufferOffset, size, logger)
			}
		case rhi.EntryTextureView:
			if le.HasStorageTexture {
				logger.Warnf("bind group: storage texture entry %q unsupported on this backend", le.Name)
				continue
			}
			tv, ok := e.TextureView.(*textureView)
			if !ok {
				continue
			}
			unit, ok := g.layout.TextureUnit(e.Binding)
			if !ok {
				continue
			}
			texByBinding[e.Binding] = tv.src
			gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
			gl.BindTexture(tv.src.glTarget, tv.src.id)
			if loc := gl.GetUniformLocation(program, gl.Str(le.Name+"\x00")); loc >= 0 {
				gl.Uniform1i(loc, int32(unit))
			}
		case rhi.EntrySampler:
			smp, ok := e.Sampler.(*sampler)
			if !ok {
				continue
			}
			texBinding, ok := g.layout.AssociatedTexture(e.Binding)
			if !ok {
				continue
			}
			unit, ok := g.layout.TextureUnit(texBinding)
			if !ok {
				continue
			}
			if gen == rhi.Gen2x && smp.id != 0 {
				gl.BindSampler(uint32(unit), smp.id)
			} else if tex, ok := texByBinding[texBinding]; ok {
				gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
				gl.BindTexture(tex.glTarget, tex.id)
				smp.applyTo(tex.glTarget, gl.TexParameteri, gl.TexParameterf, gl.TexParameterfv)
			}
		}
	}
}

// dispatchScalarUniform implements the Gen1x (and non-uniform-type
// Gen2x) buffer-entry fallback (spec §4.6 "Buffer entry, scalar
// fallback"): read the buffer's bytes back and push them through the
// plain uniformNfv/Matrix call matching its declared or inferred type.
func dispatchScalarUniform(program uint32, name string, buf *buffer, offset, size int64, logger rhi.Logger) {
	loc := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	if loc < 0 {
		return
	}
	typ, hasType := buf.TypeInfo()
	if !hasType {
		var ambiguous bool
		typ, ambiguous, hasType = inferScalarType(size)
		if ambiguous && !buf.warnedScalarAmbiguous {
			logger.Warnf("bind group: uniform %q size %d bytes is ambiguous (vec4 or mat2); assuming vec4 — call SetTypeInfo to disambiguate", name, size)
			buf.warnedScalarAmbiguous = true
		}
		if !hasType {
			logger.Warnf("bind group: uniform %q has no type metadata and size %d bytes does not match a known layout", name, size)
			return
		}
	}
	data := readBufferBytes(buf, offset, size)
	if len(data) == 0 {
		return
	}
	f := (*float32)(unsafe.Pointer(&data[0]))
	i := (*int32)(unsafe.Pointer(&data[0]))
	switch typ.Type {
	case rhi.TypeFloat:
		gl.Uniform1fv(loc, 1, f)
	case rhi.TypeVec2:
		gl.Uniform2fv(loc, 1, f)
	case rhi.TypeVec3:
		gl.Uniform3fv(loc, 1, f)
	case rhi.TypeVec4:
		gl.Uniform4fv(loc, 1, f)
	case rhi.TypeInt:
		gl.Uniform1iv(loc, 1, i)
	case rhi.TypeIVec2:
		gl.Uniform2iv(loc, 1, i)
	case rhi.TypeIVec3:
		gl.Uniform3iv(loc, 1, i)
	case rhi.TypeIVec4:
		gl.Uniform4iv(loc, 1, i)
	case rhi.TypeMat2:
		gl.UniformMatrix2fv(loc, 1, false, f)
	case rhi.TypeMat3:
		gl.UniformMatrix3fv(loc, 1, false, f)
	case rhi.TypeMat4:
		gl.UniformMatrix4fv(loc, 1, false, f)
	}
}

// inferScalarType maps a byte length to a ScalarType per spec §4.6's
// inference table. The 16-byte case is genuinely ambiguous between
// vec4 and mat2; it resolves to vec4 (the far more common case for an
// untyped buffer) and reports ambiguous=true so the caller warns once.
func inferScalarType(size int64) (typ rhi.TypeInfo, ambiguous, ok bool) {
	switch size {
	case 64:
		return rhi.TypeInfo{Type: rhi.TypeMat4}, false, true
	case 36:
		return rhi.TypeInfo{Type: rhi.TypeMat3}, false, true
	case 16:
		return rhi.TypeInfo{Type: rhi.TypeVec4}, true, true
	case 12:
		return rhi.TypeInfo{Type: rhi.TypeVec3}, false, true
	case 8:
		return rhi.TypeInfo{Type: rhi.TypeVec2}, false, true
	case 4:
		return rhi.TypeInfo{Type: rhi.TypeFloat}, false, true
	}
	return rhi.TypeInfo{}, false, false
}

// pipelineLayout is an ordered list of BindGroupLayouts; applying a
// RenderPipeline just reads this list at draw time.
type pipelineLayout struct {
	layouts []rhi.BindGroupLayout
}

func (b *Backend) NewPipelineLayout(layouts []rhi.BindGroupLayout) (rhi.PipelineLayout, error) {
	return &pipelineLayout{layouts: layouts}, nil
}

func (p *pipelineLayout) Destroy()      {}
func (p *pipelineLayout) Label() string { return "" }
func (p *pipelineLayout) BindGroupLayouts() []rhi.BindGroupLayout { return p.layouts }
