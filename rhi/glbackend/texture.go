package glbackend

import (
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
	"github.com/kestrelgpu/rhi/rhi/glbackend/internal/enumconv"
)

// texture wraps one GL texture object. glTarget is fixed at creation
// from desc.Dimension, downgrading GL_TEXTURE_3D to GL_TEXTURE_2D on
// Gen1x (legacy generation, no 3D texture support; spec §4.3).
type texture struct {
	gen        rhi.BackendGeneration
	id         uint32
	glTarget   uint32
	desc       rhi.TextureDescriptor
	downgraded bool
}

func textureTarget(dim rhi.TextureDimension, gen rhi.BackendGeneration) (target uint32, downgraded bool) {
	switch dim {
	case rhi.Dimension1D:
		return gl.TEXTURE_1D, false
	case rhi.Dimension3D:
		if gen == rhi.Gen1x {
			return gl.TEXTURE_2D, true
		}
		return gl.TEXTURE_3D, false
	case rhi.DimensionCube:
		return gl.TEXTURE_CUBE_MAP, false
	default:
		return gl.TEXTURE_2D, false
	}
}

func (b *Backend) NewTexture(desc rhi.TextureDescriptor, initial []rhi.TextureInitialData) (rhi.Texture, error) {
	if desc.Dimension == rhi.DimensionCube && desc.DepthOrArrayLayers != 6 {
		return nil, rhi.ErrConfiguration
	}
	if desc.MipLevelCount < 1 {
		desc.MipLevelCount = 1
	}

	target, downgraded := textureTarget(desc.Dimension, b.gen)
	internalFormat, format, type_, err := enumconv.TextureFormatGL(desc.Format, b.gen, b.haveExt)
	if err != nil {
		if desc.Format.IsCompressed() {
			b.logger.Warnf("texture %q: compressed format %d unsupported, falling back to RGBA8", desc.Label, desc.Format)
			internalFormat, format, type_, _ = enumconv.TextureFormatGL(rhi.FormatRGBA8Unorm, b.gen, b.haveExt)
		} else {
			return nil, err
		}
	}

	t := &texture{gen: b.gen, glTarget: target, desc: desc, downgraded: downgraded}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(target, t.id)
	defer gl.BindTexture(target, 0)

	gl.TexParameteri(target, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(target, gl.TEXTURE_MAX_LEVEL, int32(desc.MipLevelCount-1))

	t.allocateStorage(internalFormat, format, type_)
	for _, d := range initial {
		_ = t.uploadLevel(d.Data, d.MipLevel, d.ArrayLayer, format, type_)
	}
	return t, nil
}

// allocateStorage issues one glTexImage* call per mip level with a nil
// data pointer, matching the Gen1x-compatible immutable-shape pattern
// this backend uses instead of glTexStorage (core since GL 4.2, later
// than the Gen2x floor this backend targets).
func (t *texture) allocateStorage(internalFormat, format, type_ uint32) {
	w, h, d := t.desc.Width, t.desc.Height, t.desc.DepthOrArrayLayers
	if t.downgraded {
		d = 1
	}
	for lvl := 0; lvl < t.desc.MipLevelCount; lvl++ {
		lw, lh := mipDim(w, lvl), mipDim(h, lvl)
		switch t.glTarget {
		case gl.TEXTURE_1D:
			gl.TexImage1D(gl.TEXTURE_1D, int32(lvl), int32(internalFormat), int32(lw), 0, format, type_, nil)
		case gl.TEXTURE_3D:
			ld := mipDim(d, lvl)
			gl.TexImage3D(gl.TEXTURE_3D, int32(lvl), int32(internalFormat), int32(lw), int32(lh), int32(ld), 0, format, type_, nil)
		case gl.TEXTURE_CUBE_MAP:
			for face := uint32(0); face < 6; face++ {
				gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, int32(lvl), int32(internalFormat), int32(lw), int32(lh), 0, format, type_, nil)
			}
		default:
			gl.TexImage2D(gl.TEXTURE_2D, int32(lvl), int32(internalFormat), int32(lw), int32(lh), 0, format, type_, nil)
		}
	}
}

func mipDim(n, level int) int {
	v := n >> uint(level)
	if v < 1 {
		return 1
	}
	return v
}

func (t *texture) uploadLevel(data []byte, mip, layer int, format, type_ uint32) error {
	if mip < 0 || mip >= t.desc.MipLevelCount {
		return rhi.ErrOutOfRange
	}
	gl.BindTexture(t.glTarget, t.id)
	defer gl.BindTexture(t.glTarget, 0)
	var ptr unsafe.Pointer
	if data != nil {
		ptr = gl.Ptr(data)
	}
	w, h := mipDim(t.desc.Width, mip), mipDim(t.desc.Height, mip)
	switch t.glTarget {
	case gl.TEXTURE_1D:
		gl.TexSubImage1D(gl.TEXTURE_1D, int32(mip), 0, int32(w), format, type_, ptr)
	case gl.TEXTURE_3D:
		gl.TexSubImage3D(gl.TEXTURE_3D, int32(mip), 0, 0, int32(layer), int32(w), int32(h), 1, format, type_, ptr)
	case gl.TEXTURE_CUBE_MAP:
		gl.TexSubImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(layer), int32(mip), 0, 0, int32(w), int32(h), format, type_, ptr)
	default:
		gl.TexSubImage2D(gl.TEXTURE_2D, int32(mip), 0, 0, int32(w), int32(h), format, type_, ptr)
	}
	return nil
}

func (t *texture) Destroy() {
	if t == nil || t.id == 0 {
		return
	}
	gl.DeleteTextures(1, &t.id)
	*t = texture{}
}

func (t *texture) Label() string                   { return t.desc.Label }
func (t *texture) Width() int                       { return t.desc.Width }
func (t *texture) Height() int                       { return t.desc.Height }
func (t *texture) DepthOrArrayLayers() int           { return t.desc.DepthOrArrayLayers }
func (t *texture) MipLevelCount() int                { return t.desc.MipLevelCount }
func (t *texture) Format() rhi.TextureFormat         { return t.desc.Format }
func (t *texture) Dimension() rhi.TextureDimension   { return t.desc.Dimension }
func (t *texture) Downgraded3D() bool                { return t.downgraded }

func (t *texture) Update(data []byte, x, y, z, width, height, depth, mipLevel, arrayLayer int) error {
	if t.desc.Format.IsCompressed() {
		return rhi.ErrUnsupportedFeature
	}
	if mipLevel < 0 || mipLevel >= t.desc.MipLevelCount {
		return rhi.ErrOutOfRange
	}
	_, format, type_, err := enumconv.TextureFormatGL(t.desc.Format, t.gen, nil)
	if err != nil {
		format, type_ = gl.RGBA, gl.UNSIGNED_BYTE
	}
	gl.BindTexture(t.glTarget, t.id)
	defer gl.BindTexture(t.glTarget, 0)
	ptr := gl.Ptr(data)
	switch t.glTarget {
	case gl.TEXTURE_1D:
		gl.TexSubImage1D(gl.TEXTURE_1D, int32(mipLevel), int32(x), int32(width), format, type_, ptr)
	case gl.TEXTURE_3D:
		gl.TexSubImage3D(gl.TEXTURE_3D, int32(mipLevel), int32(x), int32(y), int32(z), int32(width), int32(height), int32(depth), format, type_, ptr)
	case gl.TEXTURE_CUBE_MAP:
		gl.TexSubImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(arrayLayer), int32(mipLevel), int32(x), int32(y), int32(width), int32(height), format, type_, ptr)
	default:
		gl.TexSubImage2D(gl.TEXTURE_2D, int32(mipLevel), int32(x), int32(y), int32(width), int32(height), format, type_, ptr)
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
	if desc.BaseMipLevel < 0 || desc.BaseMipLevel+desc.MipLevelCount > t.desc.MipLevelCount {
		return nil, rhi.ErrOutOfRange
	}
	if desc.BaseArrayLayer < 0 || desc.BaseArrayLayer+desc.ArrayLayerCount > t.desc.DepthOrArrayLayers {
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

// textureView is a non-owning logical subrange. Gen2x could bind a
// true GL texture view (glTextureView, core since 4.3); this backend
// targets GL 3.3 core as its Gen2x floor, so a view only ever narrows
// which mip/layer range the bindgroup applier and command replay
// address on the shared texture object.
type textureView struct {
	src  *texture
	desc rhi.TextureViewDescriptor
}

func (v *textureView) Destroy()            {}
func (v *textureView) Label() string       { return v.desc.Label }
func (v *textureView) Source() rhi.Texture { return v.src }
func (v *textureView) BaseMipLevel() int   { return v.desc.BaseMipLevel }
func (v *textureView) MipLevelCount() int  { return v.desc.MipLevelCount }
func (v *textureView) BaseArrayLayer() int { return v.desc.BaseArrayLayer }
func (v *textureView) ArrayLayerCount() int { return v.desc.ArrayLayerCount }
func (v *textureView) ViewDimension() rhi.ViewDimension { return v.desc.Dimension }
