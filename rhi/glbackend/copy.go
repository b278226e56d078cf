package glbackend

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
	"github.com/kestrelgpu/rhi/rhi/glbackend/internal/enumconv"
)

// copyBufferToBuffer goes through a CPU round trip (shadow read on
// Gen1x, glGetBufferSubData on Gen2x, then glBufferSubData) rather
// than glCopyBufferSubData, which is core only since GL 3.1: this
// keeps the same code path correct on both generations.
func copyBufferToBuffer(c rhi.BufferCopy) error {
	src, ok := c.Src.(*buffer)
	if !ok {
		return rhi.ErrConfiguration
	}
	dst, ok := c.Dst.(*buffer)
	if !ok {
		return rhi.ErrConfiguration
	}
	if c.SrcOffset < 0 || c.SrcOffset+c.Size > src.size {
		return rhi.ErrOutOfRange
	}
	if c.DstOffset < 0 || c.DstOffset+c.Size > dst.size {
		return rhi.ErrOutOfRange
	}
	data := readBufferBytes(src, c.SrcOffset, c.Size)
	dst.Update(data, c.DstOffset)
	return nil
}

func readBufferBytes(b *buffer, offset, size int64) []byte {
	out := make([]byte, size)
	if b.shadow != nil {
		copy(out, b.shadow[offset:offset+size])
		return out
	}
	target := b.bindTarget()
	gl.BindBuffer(target, b.id)
	gl.GetBufferSubData(target, int(offset), int(size), gl.Ptr(out))
	gl.BindBuffer(target, 0)
	return out
}

// bytesPerPixel approximates the texel size of the uncompressed
// formats this backend round-trips through glGetTexImage/
// glTexSubImage for copies. Compressed formats are read-only once
// uploaded (spec §4.3) and never appear here.
func bytesPerPixel(f rhi.TextureFormat) int {
	switch f {
	case rhi.FormatR8Unorm:
		return 1
	case rhi.FormatRG8Unorm:
		return 2
	case rhi.FormatRGBA8Unorm, rhi.FormatRGBA8UnormSRGB, rhi.FormatBGRA8Unorm,
		rhi.FormatDepth24PlusStencil8, rhi.FormatDepth32Float:
		return 4
	case rhi.FormatR16Float, rhi.FormatDepth16Unorm, rhi.FormatStencil8:
		return 2
	case rhi.FormatRG16Float:
		return 4
	case rhi.FormatRGBA16Float:
		return 8
	case rhi.FormatR32Float:
		return 4
	case rhi.FormatRG32Float:
		return 8
	case rhi.FormatRGBA32Float:
		return 16
	}
	return 4
}

// readTextureLevel reads an entire mip level back to the CPU. Desktop
// GL has no portable sub-rectangle texture read short of attaching it
// to an FBO and using glReadPixels, which this helper does instead of
// glGetTexImage so the same code works for a single cube face or 3D
// slice addressed as a 2D attachment.
func readTextureLevel(t *texture, level, layer int, format, type_ uint32) ([]byte, int, int) {
	w, h := mipDim(t.desc.Width, level), mipDim(t.desc.Height, level)
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	tv := &textureView{src: t, desc: rhi.TextureViewDescriptor{BaseMipLevel: level, BaseArrayLayer: layer}}
	attachTextureView(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, tv)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	buf := make([]byte, w*h*bytesPerPixel(t.desc.Format))
	gl.ReadPixels(0, 0, int32(w), int32(h), format, type_, gl.Ptr(buf))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.DeleteFramebuffers(1, &fbo)
	return buf, w, h
}

// extractRegion slices a width-x-height*bpp row-major pixel buffer
// down to the origin/size sub-rectangle requested.
func extractRegion(full []byte, fullW, bpp int, origin rhi.Origin3D, size rhi.Extent3D) []byte {
	out := make([]byte, size.Width*size.Height*bpp)
	rowBytes := size.Width * bpp
	fullRowBytes := fullW * bpp
	for row := 0; row < size.Height; row++ {
		srcOff := (origin.Y+row)*fullRowBytes + origin.X*bpp
		dstOff := row * rowBytes
		copy(out[dstOff:dstOff+rowBytes], full[srcOff:srcOff+rowBytes])
	}
	return out
}

// copyTextureToTexture round-trips src's region through the CPU: read
// the full source level via an FBO attachment, slice out the
// requested sub-rectangle, and upload it to dst. This backend has no
// GL 4.3 glCopyImageSubData to fall back on at its Gen2x floor.
func copyTextureToTexture(c rhi.TextureCopy) error {
	src, ok := c.Src.(*texture)
	if !ok {
		return rhi.ErrConfiguration
	}
	dst, ok := c.Dst.(*texture)
	if !ok {
		return rhi.ErrConfiguration
	}
	if src.desc.Format.IsCompressed() || dst.desc.Format.IsCompressed() {
		return rhi.ErrUnsupportedFeature
	}
	_, format, type_, err := enumconv.TextureFormatGL(src.desc.Format, src.gen, nil)
	if err != nil {
		format, type_ = gl.RGBA, gl.UNSIGNED_BYTE
	}
	full, fullW, _ := readTextureLevel(src, c.SrcLevel, c.SrcLayer, format, type_)
	region := extractRegion(full, fullW, bytesPerPixel(src.desc.Format), c.SrcOrigin, c.Size)
	return dst.Update(region, c.DstOrigin.X, c.DstOrigin.Y, c.DstOrigin.Z, c.Size.Width, c.Size.Height, c.Size.Depth, c.DstLevel, c.DstLayer)
}

func copyBufferToTexture(c rhi.BufferTextureCopy) error {
	buf, ok := c.Buffer.(*buffer)
	if !ok {
		return rhi.ErrConfiguration
	}
	tex, ok := c.Texture.(*texture)
	if !ok {
		return rhi.ErrConfiguration
	}
	data := readBufferBytes(buf, c.BufferOffset, int64(c.BytesPerRow*c.Size.Height))
	return tex.Update(data, c.TextureOrigin.X, c.TextureOrigin.Y, c.TextureOrigin.Z, c.Size.Width, c.Size.Height, c.Size.Depth, c.Level, c.Layer)
}

func copyTextureToBuffer(c rhi.BufferTextureCopy) error {
	tex, ok := c.Texture.(*texture)
	if !ok {
		return rhi.ErrConfiguration
	}
	buf, ok := c.Buffer.(*buffer)
	if !ok {
		return rhi.ErrConfiguration
	}
	if tex.desc.Format.IsCompressed() {
		return rhi.ErrUnsupportedFeature
	}
	_, format, type_, err := enumconv.TextureFormatGL(tex.desc.Format, tex.gen, nil)
	if err != nil {
		format, type_ = gl.RGBA, gl.UNSIGNED_BYTE
	}
	full, fullW, _ := readTextureLevel(tex, c.Level, c.Layer, format, type_)
	region := extractRegion(full, fullW, bytesPerPixel(tex.desc.Format), c.TextureOrigin, c.Size)
	buf.Update(region, c.BufferOffset)
	return nil
}
