package glbackend

import (
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
)

// buffer wraps one GL buffer object. Map/Unmap never use
// glMapBufferRange: a read mapping is filled from a CPU-side shadow on
// Gen1x and from glGetBufferSubData on Gen2x.
type buffer struct {
	gen                   rhi.BackendGeneration
	id                    uint32
	size                  int64
	usage                 rhi.BufferUsage
	hint                  uint32
	label                 string
	typ                   *rhi.TypeInfo
	warnedScalarAmbiguous bool
	shadow                []byte // CPU mirror kept on Gen1x for Map(Read) and CPU-side copies
	mapping               []byte
	mapMode               rhi.MapMode
	mapOff                int64
}

func bufferHintGL(h rhi.BufferHint) uint32 {
	switch h {
	case rhi.HintDynamic:
		return gl.DYNAMIC_DRAW
	case rhi.HintStream:
		return gl.STREAM_DRAW
	default:
		return gl.STATIC_DRAW
	}
}

// bindTarget picks a GL binding target wide enough to touch a buffer
// of any usage; the target used here is scratch-only (bound, acted
// on, then left bound) and never observed by RenderPass, which rebinds
// GL_ARRAY_BUFFER/GL_ELEMENT_ARRAY_BUFFER/GL_UNIFORM_BUFFER itself.
func (b *buffer) bindTarget() uint32 {
	switch {
	case b.usage&rhi.UsageUniform != 0:
		return gl.UNIFORM_BUFFER
	case b.usage&rhi.UsageIndex != 0:
		return gl.ELEMENT_ARRAY_BUFFER
	default:
		return gl.ARRAY_BUFFER
	}
}

func (b *Backend) NewBuffer(desc rhi.BufferDescriptor, initial []byte) (rhi.Buffer, error) {
	if desc.Size < 0 {
		return nil, rhi.ErrConfiguration
	}
	buf := &buffer{
		gen:   b.gen,
		size:  desc.Size,
		usage: desc.Usage,
		hint:  bufferHintGL(desc.Hint),
		label: desc.Label,
	}
	gl.GenBuffers(1, &buf.id)
	target := buf.bindTarget()
	gl.BindBuffer(target, buf.id)
	var dataPtr unsafe.Pointer
	if initial != nil {
		dataPtr = gl.Ptr(initial)
	}
	gl.BufferData(target, int(desc.Size), dataPtr, buf.hint)
	gl.BindBuffer(target, 0)

	if buf.gen == rhi.Gen1x {
		buf.shadow = make([]byte, desc.Size)
		if initial != nil {
			copy(buf.shadow, initial)
		}
	}
	return buf, nil
}

func (b *buffer) Destroy() {
	if b == nil || b.id == 0 {
		return
	}
	gl.DeleteBuffers(1, &b.id)
	*b = buffer{}
}

func (b *buffer) Label() string          { return b.label }
func (b *buffer) Size() int64            { return b.size }
func (b *buffer) Usage() rhi.BufferUsage { return b.usage }

func (b *buffer) Update(data []byte, offset int64) {
	if offset < 0 || offset+int64(len(data)) > b.size {
		return
	}
	target := b.bindTarget()
	gl.BindBuffer(target, b.id)
	gl.BufferSubData(target, int(offset), len(data), gl.Ptr(data))
	gl.BindBuffer(target, 0)
	if b.shadow != nil {
		copy(b.shadow[offset:], data)
	}
}

// Map returns staging storage for MapWrite, and a synchronous
// read-back (via shadow on Gen1x, glGetBufferSubData on Gen2x) for
// MapRead/MapReadWrite.
func (b *buffer) Map(mode rhi.MapMode, offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > b.size {
		return nil, rhi.ErrOutOfRange
	}
	b.mapMode = mode
	b.mapOff = offset
	if mode == rhi.MapWrite {
		b.mapping = make([]byte, size)
		return b.mapping, nil
	}
	out := make([]byte, size)
	if b.shadow != nil {
		copy(out, b.shadow[offset:offset+size])
	} else {
		target := b.bindTarget()
		gl.BindBuffer(target, b.id)
		gl.GetBufferSubData(target, int(offset), int(size), gl.Ptr(out))
		gl.BindBuffer(target, 0)
	}
	b.mapping = out
	return out, nil
}

func (b *buffer) Unmap() {
	if b.mapping == nil {
		return
	}
	if b.mapMode == rhi.MapWrite || b.mapMode == rhi.MapReadWrite {
		b.Update(b.mapping, b.mapOff)
	}
	b.mapping = nil
}

// GetData performs a synchronous glGetBufferSubData read-back. Only
// available on Gen2x, per spec §4.2: GL 2.1 has no portable
// equivalent without the same ARB_pixel_buffer_object machinery this
// backend does not otherwise depend on.
func (b *buffer) GetData(offset, size int64) ([]byte, error) {
	if b.gen != rhi.Gen2x {
		return nil, rhi.ErrUnsupportedFeature
	}
	if offset < 0 || size < 0 || offset+size > b.size {
		return nil, rhi.ErrOutOfRange
	}
	out := make([]byte, size)
	target := b.bindTarget()
	gl.BindBuffer(target, b.id)
	gl.GetBufferSubData(target, int(offset), int(size), gl.Ptr(out))
	gl.BindBuffer(target, 0)
	return out, nil
}

func (b *buffer) SetTypeInfo(info rhi.TypeInfo) { b.typ = &info }

// TypeInfo returns the typed metadata attached via SetTypeInfo, if any.
func (b *buffer) TypeInfo() (rhi.TypeInfo, bool) {
	if b.typ == nil {
		return rhi.TypeInfo{}, false
	}
	return *b.typ, true
}
